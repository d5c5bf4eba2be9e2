package handlers

import (
	"context"
	"sync"

	"smartfarmer_console/internal/models"
	"smartfarmer_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	view  models.View
	err   error
	calls int
}

func (m *mockMonitoring) View(ctx context.Context) (models.View, error) {
	m.calls++
	return m.view, m.err
}

type mockPump struct {
	view  models.View
	err   error
	calls int
}

func (m *mockPump) Toggle(ctx context.Context) (models.View, error) {
	m.calls++
	return m.view, m.err
}

type mockStream struct {
	mu sync.Mutex
	ch chan models.View

	subscribed   chan struct{}
	unsubscribed bool
}

func newMockStream() *mockStream {
	return &mockStream{ch: make(chan models.View, 4), subscribed: make(chan struct{})}
}

func (m *mockStream) Subscribe() (<-chan models.View, func()) {
	close(m.subscribed)
	return m.ch, func() {
		m.mu.Lock()
		m.unsubscribed = true
		m.mu.Unlock()
	}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func standbyView() models.View {
	return models.View{
		Moisture:  models.Gauge{Text: "42.4%", Fraction: 0.4237, Width: "42.37%"},
		AIPredict: models.Gauge{Text: "81.0%", Fraction: 0.81, Width: "81%"},
		Countdown: "120",
		Pump:      models.PumpView{State: models.PumpStandby, Label: "Standby", Badge: "Pump: Stby", Button: "Force Irrigation"},
		Link:      models.LinkOnline,
	}
}

func activeView() models.View {
	v := standbyView()
	v.Pump = models.PumpView{State: models.PumpActive, Label: "Active", Badge: "Pump: ACTIVE", Button: "Stop Irrigation", ButtonClass: "active-state"}
	return v
}
