package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"artemis/internal/domain/models"
	"artemis/internal/storage"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

func (s *Storage) SaveUser(ctx context.Context, userName, email, passHash string) (uuid.UUID, error) {
	const op = "storage.sqlite.SaveUser"

	id := uuid.New()

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, email, pass_hash) VALUES(?, ?, ?, ?)")
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id.String(), userName, email, passHash); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && errors.Is(sqliteErr, sqlite3.ErrConstraintUnique) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) User(ctx context.Context, userName string) (*models.User, error) {
	const op = "storage.sqlite.User"

	stmt, err := s.db.Prepare("SELECT id, username, email, pass_hash FROM users WHERE username = ?")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	return s.scanUser(stmt.QueryRowContext(ctx, userName), op)
}

func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.sqlite.UserByID"

	stmt, err := s.db.Prepare("SELECT id, username, email, pass_hash FROM users WHERE id = ?")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	return s.scanUser(stmt.QueryRowContext(ctx, id.String()), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	var (
		user  models.User
		rawID string
	)
	if err := row.Scan(&rawID, &user.UserName, &user.Email, &user.PassHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	return &user, nil
}

// UpdatePassHash persists an upgraded hash after verify-with-rehash.
func (s *Storage) UpdatePassHash(ctx context.Context, id uuid.UUID, passHash string) error {
	const op = "storage.sqlite.UpdatePassHash"

	stmt, err := s.db.Prepare("UPDATE users SET pass_hash = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, passHash, id.String()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserRoles(ctx context.Context, userID uuid.UUID) ([]models.RoleInfo, error) {
	const op = "storage.sqlite.UserRoles"

	query := `
        SELECT r.id, r.name
        FROM roles r
        JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id = ?`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var roles []models.RoleInfo
	for rows.Next() {
		var (
			rawID string
			role  models.RoleInfo
		)
		if err := rows.Scan(&rawID, &role.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		role.ID = id
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

func (s *Storage) UserClaims(ctx context.Context, userID uuid.UUID) ([]models.UserClaim, error) {
	const op = "storage.sqlite.UserClaims"

	rows, err := s.db.QueryContext(ctx,
		"SELECT claim_type, claim_value FROM user_claims WHERE user_id = ?", userID.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanClaims(rows, op)
}

func (s *Storage) RoleClaims(ctx context.Context, roleIDs []uuid.UUID) ([]models.UserClaim, error) {
	const op = "storage.sqlite.RoleClaims"

	if len(roleIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roleIDs)), ",")
	args := make([]any, 0, len(roleIDs))
	for _, id := range roleIDs {
		args = append(args, id.String())
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT claim_type, claim_value FROM role_claims WHERE role_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanClaims(rows, op)
}

func scanClaims(rows *sql.Rows, op string) ([]models.UserClaim, error) {
	var claims []models.UserClaim
	for rows.Next() {
		var c models.UserClaim
		if err := rows.Scan(&c.ClaimType, &c.ClaimValue); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
