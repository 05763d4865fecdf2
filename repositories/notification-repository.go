package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/models"
	"github.com/gocql/gocql"
)

type NotificationRepo struct {
	session *gocql.Session
}

// NewNotificationRepo creates the keyspace when missing and returns a repo bound to it.
func NewNotificationRepo(hosts []string, keyspace string) (*NotificationRepo, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: %v", err)
		return nil, err
	}

	err = session.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s
		 WITH replication = {
			 'class': 'SimpleStrategy',
			 'replication_factor': 1
		 }`, keyspace)).Exec()
	session.Close()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_KEYSPACE_FAILED, Description: Failed to create keyspace %s: %v", keyspace, err)
		return nil, err
	}

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASSANDRA_CONNECT_FAILED, Description: Failed to connect to keyspace %s: %v", keyspace, err)
		return nil, err
	}

	logging.Logger.Infof("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra keyspace %s", keyspace)
	return &NotificationRepo{session: session}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed")
}

func (nr *NotificationRepo) CreateTable() error {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			user_id TEXT,
			created_at TIMESTAMP,
			id UUID,
			project_id TEXT,
			task_id TEXT,
			message TEXT,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("create notifications table: %w", err)
	}
	return nil
}

func (nr *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = gocql.TimeUUID().String()
	}
	id, err := gocql.ParseUUID(n.ID)
	if err != nil {
		return fmt.Errorf("notification id: %w", err)
	}

	err = nr.session.Query(
		`INSERT INTO notifications (user_id, created_at, id, project_id, task_id, message, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.CreatedAt, id, n.ProjectID, n.TaskID, n.Message, n.IsRead,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (nr *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, user_id, project_id, task_id, message, created_at, is_read
		 FROM notifications WHERE user_id = ?`, userID,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var (
		id gocql.UUID
		n  models.Notification
	)
	for iter.Scan(&id, &n.UserID, &n.ProjectID, &n.TaskID, &n.Message, &n.CreatedAt, &n.IsRead) {
		n.ID = id.String()
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (nr *NotificationRepo) MarkRead(ctx context.Context, userID, notificationID string, createdAt time.Time) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return ErrNotFound
	}
	if err := nr.exists(ctx, userID, id, createdAt); err != nil {
		return err
	}
	err = nr.session.Query(
		`UPDATE notifications SET is_read = true WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (nr *NotificationRepo) Delete(ctx context.Context, userID, notificationID string, createdAt time.Time) error {
	id, err := gocql.ParseUUID(notificationID)
	if err != nil {
		return ErrNotFound
	}
	if err := nr.exists(ctx, userID, id, createdAt); err != nil {
		return err
	}
	err = nr.session.Query(
		`DELETE FROM notifications WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// exists guards updates, which Cassandra would otherwise turn into inserts.
func (nr *NotificationRepo) exists(ctx context.Context, userID string, id gocql.UUID, createdAt time.Time) error {
	var found gocql.UUID
	err := nr.session.Query(
		`SELECT id FROM notifications WHERE user_id = ? AND created_at = ? AND id = ?`,
		userID, createdAt, id,
	).WithContext(ctx).Scan(&found)
	if err == gocql.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find notification: %w", err)
	}
	return nil
}
