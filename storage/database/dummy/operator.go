package dummydb

import (
	"context"

	"github.com/RealCodeCrafter/ERP/core/operator"
)

type operatorRepository struct {
	db *operatorTable
}

var _ operator.Repository = (*operatorRepository)(nil) // interface compliance check

func NewOperatorRepository(db *DB) operator.Repository {
	return &operatorRepository{db: db.operator}
}

func (repo *operatorRepository) CreateOperator(_ context.Context, op operator.Operator) (operator.Operator, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	op.ID = repo.db.pkCount
	repo.db.table[op.ID] = &op
	return op, nil
}

func (repo *operatorRepository) GetOperatorByID(_ context.Context, id int) (operator.Operator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if op, ok := repo.db.table[id]; ok {
		return *op, nil
	}
	return operator.Operator{}, operator.ErrNotFound
}

func (repo *operatorRepository) GetOperatorByUsername(_ context.Context, username string) (operator.Operator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, op := range repo.db.table {
		if op.Username == username {
			return *op, nil
		}
	}
	return operator.Operator{}, operator.ErrNotFound
}

func (repo *operatorRepository) QueryAlertSubscribers(_ context.Context) ([]operator.Operator, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subscribers []operator.Operator
	for _, op := range repo.db.table {
		if op.AlertsOn {
			subscribers = append(subscribers, *op)
		}
	}
	return subscribers, nil
}
