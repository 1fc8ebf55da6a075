package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/yourusername/oriem-gate/internal/session"
)

const (
	taskTypeAudit = "audit:record"
	queueAudit    = "audit"
)

// Manager は監査イベントの投入とワーカー処理を担います。
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *Store
	logger *log.Logger
}

// NewManager は Manager を初期化します。
func NewManager(redisURL string, store *Store, logger *log.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueAudit: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client: client,
		server: server,
		mux:    mux,
		store:  store,
		logger: logger,
	}
	mux.HandleFunc(taskTypeAudit, manager.handleAuditTask)
	return manager, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && err != asynq.ErrServerClosed {
			if m.logger != nil {
				m.logger.Printf("asynq server stopped with error: %v", err)
			} else {
				log.Printf("asynq server stopped with error: %v", err)
			}
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.server.Shutdown()
	m.client.Close()
	return nil
}

// Enqueue はイベントを監査キューに投入します。
func (m *Manager) Enqueue(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskTypeAudit, body, asynq.Queue(queueAudit))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(1)); err != nil {
		return err
	}
	return nil
}

// Recent は記録済みイベントを新しい順に返します。
func (m *Manager) Recent(ctx context.Context, n int64) ([]Event, error) {
	return m.store.Recent(ctx, n)
}

// Recorder はセッション遷移を監査イベントに変換するリスナーを返します。
// 復元による遷移は記録しません（ナビゲーションごとに発生するため）。
func (m *Manager) Recorder() session.Listener {
	return func(prev, next session.Session) {
		event := Classify(prev, next)
		if event == nil {
			return
		}
		m.enqueueEvent(event)
	}
}

// DiscardRecorder は復元時に破棄されたレコードを監査イベントとして
// 記録するリスナーを返します。
func (m *Manager) DiscardRecorder() session.DiscardListener {
	return func(key string) {
		m.enqueueEvent(&Event{
			Kind:       KindRestoreRejected,
			SessionKey: key,
		})
	}
}

func (m *Manager) enqueueEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Enqueue(ctx, event); err != nil && m.logger != nil {
		m.logger.Printf("failed to enqueue audit event kind=%s: %v", event.Kind, err)
	}
}

// Classify は遷移前後のスナップショットから監査イベントを導出します。
// 記録対象外の遷移では nil を返します。unknown からの遷移は復元であり、
// 認証済みクライアントのリクエストごとに発生するため記録しません。
func Classify(prev, next session.Session) *Event {
	if prev.State == session.StateUnknown {
		return nil
	}
	switch {
	case next.IsAuthenticated():
		return &Event{
			Kind:     KindLogin,
			UserID:   next.Identity.UserID,
			Username: next.Identity.Username,
		}
	case prev.IsAuthenticated():
		return &Event{
			Kind:     KindLogout,
			UserID:   prev.Identity.UserID,
			Username: prev.Identity.Username,
		}
	default:
		return nil
	}
}

func (m *Manager) handleAuditTask(ctx context.Context, task *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return err
	}
	if event.EventID == "" {
		return fmt.Errorf("missing eventId in payload")
	}
	return m.store.Append(ctx, &event)
}
