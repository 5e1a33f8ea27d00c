package http

import (
	"net/http"

	"nudge/internal/auth"
	"nudge/internal/config"
	"nudge/internal/http/handler"
	mw "nudge/internal/http/middleware"
	"nudge/internal/notify"
	"nudge/internal/reminder"
	"nudge/internal/task"
	"nudge/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Deps is everything the HTTP surface talks to. DB is nil when storage is
// unavailable; user-scoped routes are not mounted in that mode.
type Deps struct {
	DB          *gorm.DB
	JWT         *auth.JWT
	Scheduler   *reminder.Scheduler
	Reminders   reminder.Store
	Gate        *notify.Gate
	Coordinator *worker.Coordinator
	Clients     *worker.MemClients
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// process-level surfaces: capability, worker control, visibility
	nh := &handler.NotificationHandler{Gate: d.Gate, Scheduler: d.Scheduler}
	r.Get("/notifications/permission", nh.Permission)
	r.Post("/notifications/permission", nh.Request)
	r.Post("/notifications/test", nh.Test)
	r.Post("/visibility", nh.Visibility)

	wh := &handler.WorkerHandler{Coordinator: d.Coordinator, Clients: d.Clients}
	r.Post("/worker/events", wh.Events)
	r.Post("/worker/clients", wh.Register)

	if d.DB == nil {
		return r
	}

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: d.DB}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	taskSvc := &task.Service{DB: d.DB, Scheduler: d.Scheduler}
	th := &handler.TaskHandler{Svc: taskSvc}
	ch := &handler.CalendarHandler{Svc: taskSvc, Store: d.Reminders}

	r.Route("/tasks", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", th.Create)
		r.Get("/", th.List)

		r.Get("/{id}", th.Get)
		r.Patch("/{id}", th.Update)
		r.Delete("/{id}", th.Delete)

		r.Get("/{id}/calendar.ics", ch.ExportICS)
		r.Get("/{id}/calendar-url", ch.ProviderLink)
	})

	rh := &handler.ReminderHandler{Store: d.Reminders}
	r.With(auth.RequireAuth(d.JWT)).Get("/reminders", rh.List)

	return r
}
