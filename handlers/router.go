package handlers

import (
	"net/http"

	"github.com/BadissRH/easypm/metrics"
	"github.com/BadissRH/easypm/middleware"
	"github.com/BadissRH/easypm/services"
	"github.com/gorilla/mux"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Users         *services.UserService
	Projects      *services.ProjectService
	Tasks         *services.TaskService
	Activity      *services.ActivityService
	Reports       *services.ReportService
	Notifications *services.NotificationService
}

// NewRouter registers every API route. Public auth routes are matched before the
// JWT-protected subrouter.
func NewRouter(svc Services, corsOrigin string) http.Handler {
	login := NewLoginHandler(svc.Users)
	users := NewUserHandler(svc.Users)
	projects := NewProjectHandler(svc.Projects, svc.Activity, svc.Reports)
	tasks := NewTaskHandler(svc.Tasks)
	notifications := NewNotificationHandler(svc.Notifications)

	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", login.Login).Methods("POST")
	api.HandleFunc("/auth/forgot-password", login.ForgotPassword).Methods("POST")
	api.HandleFunc("/auth/reset-password", login.ResetPassword).Methods("POST")
	api.HandleFunc("/auth/accept-invite", login.AcceptInvite).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(svc.Users))

	protected.HandleFunc("/auth/logout", login.Logout).Methods("POST")
	protected.HandleFunc("/auth/events", users.ListAuthEvents).Methods("GET")

	protected.HandleFunc("/users/me", users.GetMe).Methods("GET")
	protected.HandleFunc("/users/me", users.UpdateMe).Methods("PUT")
	protected.HandleFunc("/users/me/password", users.ChangePassword).Methods("PUT")
	protected.HandleFunc("/users", users.ListUsers).Methods("GET")
	protected.HandleFunc("/users/invite", users.InviteUser).Methods("POST")
	protected.HandleFunc("/users/{id}/role", users.ChangeRole).Methods("PUT")
	protected.HandleFunc("/users/{id}", users.DeleteUser).Methods("DELETE")

	protected.HandleFunc("/projects", projects.ListProjects).Methods("GET")
	protected.HandleFunc("/projects", projects.CreateProject).Methods("POST")
	protected.HandleFunc("/projects/{id}", projects.GetProject).Methods("GET")
	protected.HandleFunc("/projects/{id}", projects.UpdateProject).Methods("PUT")
	protected.HandleFunc("/projects/{id}", projects.DeleteProject).Methods("DELETE")
	protected.HandleFunc("/projects/{id}/tasks", tasks.ListProjectTasks).Methods("GET")
	protected.HandleFunc("/projects/{id}/tasks", tasks.CreateTask).Methods("POST")
	protected.HandleFunc("/projects/{id}/logs", projects.GetProjectLogs).Methods("GET")
	protected.HandleFunc("/projects/{id}/report", projects.GetProjectReport).Methods("GET")
	protected.HandleFunc("/logs", projects.GetAllLogs).Methods("GET")

	protected.HandleFunc("/tasks/mine", tasks.ListMyTasks).Methods("GET")
	protected.HandleFunc("/tasks/due", tasks.ListDueTasks).Methods("GET")
	protected.HandleFunc("/tasks", tasks.ListTasksByAssignee).Methods("GET")
	protected.HandleFunc("/tasks/{id}", tasks.GetTask).Methods("GET")
	protected.HandleFunc("/tasks/{id}", tasks.UpdateTask).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", tasks.DeleteTask).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/comments", tasks.AddComment).Methods("POST")
	protected.HandleFunc("/tasks/{id}/attachments", tasks.AddAttachment).Methods("POST")

	protected.HandleFunc("/notifications", notifications.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/read", notifications.MarkNotificationAsRead).Methods("PUT")
	protected.HandleFunc("/notifications", notifications.DeleteNotification).Methods("DELETE")

	return middleware.CORS(corsOrigin)(router)
}
