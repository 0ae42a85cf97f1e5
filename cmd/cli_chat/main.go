package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"medchat/internal/config"
	"medchat/internal/db"
	"medchat/internal/domain"
	"medchat/internal/llm"
	"medchat/internal/repository"
	"medchat/internal/service"
	"medchat/internal/storage"
)

const helpText = `Comandos:
  /rol <rol>          cambia el rol (patient, doctor, ...)
  /idioma <codigo>    cambia el idioma destino
  /historial          muestra los mensajes
  /buscar <texto>     busca en original y traduccion
  /resumen            resume la conversacion
  /audio <archivo>    adjunta un archivo de audio
  /salir              termina
Cualquier otra linea se envia como mensaje.`

type session struct {
	chat           *service.ChatService
	conversationID string
	role           string
	targetLanguage string
}

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	conversations, messages, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	chatSvc := service.NewChatService(
		logger,
		conversations,
		messages,
		service.NewTranslationService(llmClient, logger),
		service.NewSummaryService(llmClient, logger),
		storage.NewLocalAudioStore(cfg.MediaRoot, cfg.MediaURL),
		service.NewMemorySummaryCache(cfg.SummaryCacheTTL),
	)

	s := &session{chat: chatSvc, role: "patient", targetLanguage: "es"}

	fmt.Print("ID de conversacion (enter para crear una nueva): ")
	line, _ := reader.ReadString('\n')
	if err := s.open(ctx, strings.TrimSpace(line)); err != nil {
		log.Fatalf("abrir conversacion: %v", err)
	}
	fmt.Printf("Conversacion %s (rol=%s, idioma=%s)\n", s.conversationID, s.role, s.targetLanguage)
	fmt.Println(helpText)

	for {
		fmt.Printf("[%s → %s] > ", s.role, s.targetLanguage)
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/salir" {
			return
		}
		if err := s.handle(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.ConversationRepository, repository.MessageRepository, func(), error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		sqlDB, err := db.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = sqlDB.Close() }
		return repository.NewSQLiteConversationRepository(sqlDB), repository.NewSQLiteMessageRepository(sqlDB), closeFn, nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return repository.NewPgConversationRepository(pool), repository.NewPgMessageRepository(pool), pool.Close, nil
}

func (s *session) open(ctx context.Context, id string) error {
	if id == "" {
		conv, err := s.chat.CreateConversation(ctx)
		if err != nil {
			return err
		}
		s.conversationID = conv.ID
		return nil
	}
	conv, err := s.chat.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	s.conversationID = conv.ID
	return nil
}

func (s *session) handle(ctx context.Context, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/ayuda":
		fmt.Println(helpText)
	case "/rol":
		if arg == "" {
			return fmt.Errorf("uso: /rol <rol>")
		}
		s.role = arg
	case "/idioma":
		if arg == "" {
			return fmt.Errorf("uso: /idioma <codigo>")
		}
		s.targetLanguage = arg
	case "/historial":
		msgs, err := s.chat.ListMessages(ctx, s.conversationID)
		if err != nil {
			return err
		}
		s.print(msgs)
	case "/buscar":
		msgs, err := s.chat.SearchMessages(ctx, s.conversationID, arg)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			fmt.Println("Sin resultados.")
		}
		s.print(msgs)
	case "/resumen":
		summary, err := s.chat.Summarize(ctx, s.conversationID)
		if err != nil {
			return err
		}
		if summary.Degraded {
			fmt.Printf("(sin LLM: %v)\n", summary.Cause)
		}
		fmt.Println(summary.Text)
	case "/audio":
		return s.uploadAudio(ctx, arg)
	default:
		if strings.HasPrefix(cmd, "/") {
			return fmt.Errorf("comando desconocido %s (usa /ayuda)", cmd)
		}
		_, translation, err := s.chat.SendMessage(ctx, service.SendMessageInput{
			Text:           line,
			Role:           s.role,
			TargetLanguage: s.targetLanguage,
			ConversationID: s.conversationID,
		})
		if err != nil {
			return err
		}
		if translation.Degraded {
			fmt.Printf("(traduccion no disponible: %v)\n", translation.Cause)
		}
		fmt.Println(translation.Text)
	}
	return nil
}

func (s *session) uploadAudio(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("uso: /audio <archivo>")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, url, err := s.chat.UploadAudio(ctx, service.UploadAudioInput{
		ConversationID: s.conversationID,
		Role:           s.role,
		Filename:       filepath.Base(path),
		Body:           f,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Audio guardado: %s\n", url)
	return nil
}

func (s *session) print(msgs []domain.Message) {
	for _, m := range msgs {
		ts := m.CreatedAt.Local().Format("15:04:05")
		if m.Kind() == domain.MessageKindAudio {
			fmt.Printf("%s %-8s [audio] %s\n", ts, m.Role, s.chat.AudioURL(*m.Audio))
			continue
		}
		fmt.Printf("%s %-8s %s\n", ts, m.Role, m.Original())
		if m.TranslatedText != nil {
			fmt.Printf("%s %-8s → %s\n", ts, "", *m.TranslatedText)
		}
	}
}
