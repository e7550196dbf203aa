package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/operator"
)

type operatorRow struct {
	ID           int       `db:"id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Phone        string    `db:"phone"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	AlertsOn     bool      `db:"alerts_on"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r operatorRow) model() operator.Operator {
	return operator.Operator{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		AlertsOn:     r.AlertsOn,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type operatorRepository struct {
	db *sqlx.DB
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(db *sqlx.DB) operator.Repository {
	return &operatorRepository{db: db}
}

func (repo *operatorRepository) CreateOperator(ctx context.Context, op operator.Operator) (operator.Operator, error) {
	const q = `
		INSERT INTO operator (first_name, last_name, phone, email, username, password_hash, alerts_on, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		op.FirstName, op.LastName, op.Phone, op.Email, op.Username, op.PasswordHash, op.AlertsOn,
		op.CreatedAt, op.UpdatedAt,
	).Scan(&op.ID)
	if err != nil {
		return operator.Operator{}, errors.Wrap(err, "inserting operator")
	}
	return op, nil
}

func (repo *operatorRepository) GetOperatorByID(ctx context.Context, id int) (operator.Operator, error) {
	var row operatorRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM operator WHERE id = $1`, id)
	if err != nil {
		return operator.Operator{}, trapNoRowsErr(err, operator.ErrNotFound, "getting operator")
	}
	return row.model(), nil
}

func (repo *operatorRepository) GetOperatorByUsername(ctx context.Context, username string) (operator.Operator, error) {
	var row operatorRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM operator WHERE username = $1`, username)
	if err != nil {
		return operator.Operator{}, trapNoRowsErr(err, operator.ErrNotFound, "getting operator")
	}
	return row.model(), nil
}

func (repo *operatorRepository) QueryAlertSubscribers(ctx context.Context) ([]operator.Operator, error) {
	var rows []operatorRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM operator WHERE alerts_on ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying alert subscribers")
	}
	operators := make([]operator.Operator, 0, len(rows))
	for _, r := range rows {
		operators = append(operators, r.model())
	}
	return operators, nil
}
