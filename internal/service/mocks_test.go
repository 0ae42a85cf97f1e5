package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"medchat/internal/domain"
	"medchat/internal/repository"
)

type mockConversationRepo struct {
	items     map[string]domain.Conversation
	createErr error
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{items: make(map[string]domain.Conversation)}
}

func (m *mockConversationRepo) Create(_ context.Context, conversation domain.Conversation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.items[conversation.ID] = conversation
	return nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	conv, ok := m.items[id]
	if !ok {
		return domain.Conversation{}, repository.ErrConversationNotFound
	}
	return conv, nil
}

type mockMessageRepo struct {
	conversations *mockConversationRepo
	items         []domain.Message
	createErr     error
	listErr       error
	listCalls     int
}

func newMockMessageRepo(conversations *mockConversationRepo) *mockMessageRepo {
	return &mockMessageRepo{conversations: conversations}
}

func (m *mockMessageRepo) Create(_ context.Context, message domain.Message) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.conversations.items[message.ConversationID]; !ok {
		return repository.ErrConversationNotFound
	}
	m.items = append(m.items, message)
	return nil
}

func (m *mockMessageRepo) ListByConversationID(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.filter(func(msg domain.Message) bool { return msg.ConversationID == conversationID }), nil
}

func (m *mockMessageRepo) Search(_ context.Context, conversationID, query string) ([]domain.Message, error) {
	q := strings.ToLower(query)
	return m.filter(func(msg domain.Message) bool {
		if msg.ConversationID != conversationID {
			return false
		}
		return (msg.OriginalText != nil && strings.Contains(strings.ToLower(*msg.OriginalText), q)) ||
			(msg.TranslatedText != nil && strings.Contains(strings.ToLower(*msg.TranslatedText), q))
	}), nil
}

func (m *mockMessageRepo) filter(keep func(domain.Message) bool) []domain.Message {
	out := []domain.Message{}
	for _, msg := range m.items {
		if keep(msg) {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type mockAudioStore struct {
	saved   map[string]string
	deleted []string
	saveErr error
	next    int
}

func newMockAudioStore() *mockAudioStore {
	return &mockAudioStore{saved: make(map[string]string)}
}

func (m *mockAudioStore) Save(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.next++
	key := "audio/" + strings.Repeat("x", m.next) + "-" + filename
	m.saved[key] = string(data)
	return key, nil
}

func (m *mockAudioStore) Delete(_ context.Context, key string) error {
	if _, ok := m.saved[key]; !ok {
		return errors.New("not found")
	}
	delete(m.saved, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockAudioStore) URL(key string) string {
	return "/media/" + key
}
