package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldnotify/internal/domain/notification"

	"github.com/lib/pq"
)

var _ notification.Directory = (*PostgresDirectory)(nil)

// PostgresDirectory reads users, roles and the org hierarchy from the
// business database. It never writes.
type PostgresDirectory struct {
	db *sql.DB
}

// Open connects to the business database and verifies the connection.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening directory database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging directory database: %w", err)
	}
	return db, nil
}

// NewPostgresDirectory creates a directory over an open database handle.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const (
	queryUsersByRole = `
		SELECT u.id, u.email, u.phone, u.full_name
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = $1 AND u.is_active
		ORDER BY u.id`

	queryEmployeeByID = `
		SELECT id, user_id, reports_to
		FROM employees
		WHERE id = $1`

	queryDirectSupervisor = `
		SELECT s.user_id
		FROM employees e
		JOIN employees s ON s.id = e.reports_to
		WHERE e.user_id = $1 AND s.user_id IS NOT NULL
		LIMIT 1`

	queryActiveEmployees = `
		SELECT id, user_id, reports_to
		FROM employees
		WHERE termination_date IS NULL AND user_id IS NOT NULL
		ORDER BY id`

	queryClientUser = `
		SELECT portal_user_id
		FROM clients
		WHERE id = $1 AND portal_user_id IS NOT NULL`

	queryDepartmentManager = `
		SELECT e.user_id
		FROM departments d
		JOIN employees e ON e.id = d.manager_id
		WHERE d.id = $1 AND e.user_id IS NOT NULL`

	queryUsersByIDs = `
		SELECT id, email, phone, full_name
		FROM users
		WHERE id = ANY($1)`
)

// ListActiveUsersByRole returns active users holding the role name.
func (d *PostgresDirectory) ListActiveUsersByRole(ctx context.Context, roleName string) ([]notification.Recipient, error) {
	rows, err := d.db.QueryContext(ctx, queryUsersByRole, roleName)
	if err != nil {
		return nil, fmt.Errorf("listing users with role %s: %w", roleName, err)
	}
	return scanRecipients(rows)
}

// GetEmployeeByID returns nil, nil for an unknown employee.
func (d *PostgresDirectory) GetEmployeeByID(ctx context.Context, id string) (*notification.Employee, error) {
	var (
		e         notification.Employee
		userID    sql.NullString
		reportsTo sql.NullString
	)
	err := d.db.QueryRowContext(ctx, queryEmployeeByID, id).Scan(&e.ID, &userID, &reportsTo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching employee %s: %w", id, err)
	}
	e.UserID = userID.String
	e.ReportsTo = reportsTo.String
	return &e, nil
}

// GetDirectSupervisor returns the user id of userID's direct superior, or "".
func (d *PostgresDirectory) GetDirectSupervisor(ctx context.Context, userID string) (string, error) {
	return d.lookupUserID(ctx, queryDirectSupervisor, userID, "direct supervisor")
}

// ListActiveEmployees returns employees that are not terminated and have a login.
func (d *PostgresDirectory) ListActiveEmployees(ctx context.Context) ([]notification.Employee, error) {
	rows, err := d.db.QueryContext(ctx, queryActiveEmployees)
	if err != nil {
		return nil, fmt.Errorf("listing active employees: %w", err)
	}
	defer rows.Close()

	var out []notification.Employee
	for rows.Next() {
		var (
			e         notification.Employee
			reportsTo sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &reportsTo); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		e.ReportsTo = reportsTo.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return out, nil
}

// GetClientUserID returns the portal user linked to a client, or "".
func (d *PostgresDirectory) GetClientUserID(ctx context.Context, clientID string) (string, error) {
	return d.lookupUserID(ctx, queryClientUser, clientID, "client portal user")
}

// GetDepartmentManager returns the user managing a department, or "".
func (d *PostgresDirectory) GetDepartmentManager(ctx context.Context, departmentID string) (string, error) {
	return d.lookupUserID(ctx, queryDepartmentManager, departmentID, "department manager")
}

// GetUsersByIDs loads contact details for all ids in one query. Unknown ids
// are absent from the result.
func (d *PostgresDirectory) GetUsersByIDs(ctx context.Context, ids []string) ([]notification.Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := d.db.QueryContext(ctx, queryUsersByIDs, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("loading %d users: %w", len(ids), err)
	}
	return scanRecipients(rows)
}

func (d *PostgresDirectory) lookupUserID(ctx context.Context, query, arg, what string) (string, error) {
	var userID string
	err := d.db.QueryRowContext(ctx, query, arg).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up %s for %s: %w", what, arg, err)
	}
	return userID, nil
}

func scanRecipients(rows *sql.Rows) ([]notification.Recipient, error) {
	defer rows.Close()

	var out []notification.Recipient
	for rows.Next() {
		var (
			r                      notification.Recipient
			email, phone, fullName sql.NullString
		)
		if err := rows.Scan(&r.ID, &email, &phone, &fullName); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		r.Email = email.String
		r.Phone = phone.String
		r.FullName = fullName.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return out, nil
}
