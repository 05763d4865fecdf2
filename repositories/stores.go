package repositories

var (
	_ UserStore         = (*UserRepo)(nil)
	_ ProjectStore      = (*ProjectRepo)(nil)
	_ TaskStore         = (*TaskRepo)(nil)
	_ ActivityStore     = (*ActivityRepo)(nil)
	_ AuthEventStore    = (*AuthEventRepo)(nil)
	_ TokenStore        = (*TokenRepo)(nil)
	_ NotificationStore = (*NotificationRepo)(nil)
)
