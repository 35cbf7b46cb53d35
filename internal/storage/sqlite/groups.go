package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitengine/internal/models"
	"github.com/mmynk/splitengine/internal/storage"
)

// CreateGroup persists a new group and its initial members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i := range group.Members {
		member := &group.Members[i]
		if member.JoinedAt == 0 {
			member.JoinedAt = group.CreatedAt
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, role, joined_at, position) VALUES (?, ?, ?, ?, ?)",
			group.ID, member.UserID, string(member.Role), member.JoinedAt, i,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s: %w", member.UserID, storage.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID, including its members in join order.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.loadMembers(ctx, []string{groupID})
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]

	return group, nil
}

// ListGroupsForUser retrieves all groups the user belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	var ids []string
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
		ids = append(ids, group.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	if len(ids) == 0 {
		return groups, nil
	}

	members, err := s.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		group.Members = members[group.ID]
	}

	return groups, nil
}

// AddGroupMember adds a user to an existing group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID string, member models.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at, position)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM group_members WHERE group_id = ?))`,
		groupID, member.UserID, string(member.Role), member.JoinedAt, groupID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("member %s: %w", member.UserID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}

	return nil
}

// loadMembers returns the members of each group keyed by group ID.
func (s *SQLiteStore) loadMembers(ctx context.Context, groupIDs []string) (map[string][]models.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id IN (?` + repeatPlaceholder(len(groupIDs)-1) + `)
		ORDER BY group_id, position`

	args := make([]any, len(groupIDs))
	for i, id := range groupIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]models.GroupMember, len(groupIDs))
	for rows.Next() {
		var groupID, role string
		var member models.GroupMember
		if err := rows.Scan(&groupID, &member.UserID, &role, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		member.Role = models.Role(role)
		members[groupID] = append(members[groupID], member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}
