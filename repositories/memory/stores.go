package memory

import "github.com/BadissRH/easypm/repositories"

var (
	_ repositories.UserStore         = (*UserStore)(nil)
	_ repositories.ProjectStore      = (*ProjectStore)(nil)
	_ repositories.TaskStore         = (*TaskStore)(nil)
	_ repositories.ActivityStore     = (*ActivityStore)(nil)
	_ repositories.AuthEventStore    = (*AuthEventStore)(nil)
	_ repositories.TokenStore        = (*TokenStore)(nil)
	_ repositories.NotificationStore = (*NotificationStore)(nil)
)
