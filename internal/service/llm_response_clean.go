package service

import "strings"

// cleanModelOutput quita BOM y espacios alrededor; el contenido se respeta tal cual,
// incluidos bloques ``` que formen parte de la traduccion.
func cleanModelOutput(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}
