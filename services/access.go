package services

import (
	"github.com/BadissRH/easypm/models"
)

func requireManager(auth models.AuthContext) error {
	if !auth.IsManager() {
		return forbidden("requires Administrator or Project Manager role")
	}
	return nil
}

func requireAdmin(auth models.AuthContext) error {
	if !auth.IsAdmin() {
		return forbidden("requires Administrator role")
	}
	return nil
}

func canReadProject(auth models.AuthContext, p *models.Project) bool {
	return auth.IsManager() || p.HasMember(auth.UserID)
}

func requireProjectRead(auth models.AuthContext, p *models.Project) error {
	if !canReadProject(auth, p) {
		return forbidden("not a member of this project")
	}
	return nil
}

// canEditTask covers update, comment and attachment on a task.
func canEditTask(auth models.AuthContext, p *models.Project, t *models.Task) bool {
	return auth.IsManager() || t.AssignedTo(auth.UserID) || p.HasMember(auth.UserID)
}
