package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/student"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

// hydrate loads the roster. Caller holds the group table lock; the student
// table is locked after the group table everywhere in this package.
func (repo *groupRepository) hydrate(grp group.Group) group.Group {
	ids := repo.db.group.rosters[grp.ID]

	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	grp.Students = make([]student.Student, 0, len(ids))
	for _, id := range ids {
		if std, ok := repo.db.student.table[id]; ok {
			grp.Students = append(grp.Students, *std)
		}
	}
	return grp
}

func (repo *groupRepository) CheckNameUniqueness(_ context.Context, name string, courseID int, excludedGroups ...group.Group) error {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	excluded := make(map[int]struct{}, len(excludedGroups))
	for _, g := range excludedGroups {
		excluded[g.ID] = struct{}{}
	}
	for _, grp := range repo.db.group.table {
		if _, skip := excluded[grp.ID]; skip {
			continue
		}
		if grp.CourseID == courseID && strings.EqualFold(grp.Name, name) {
			return group.ErrNameExists
		}
	}
	return nil
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	repo.db.group.pkCount++
	grp.ID = repo.db.group.pkCount

	ids := make([]int, 0, len(grp.Students))
	for _, s := range grp.Students {
		ids = append(ids, s.ID)
	}
	repo.db.group.rosters[grp.ID] = ids

	stored := grp
	stored.Students = nil
	repo.db.group.table[grp.ID] = &stored
	return repo.hydrate(*repo.db.group.table[grp.ID]), nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id int) (group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	grp, ok := repo.db.group.table[id]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	return repo.hydrate(*grp), nil
}

func (repo *groupRepository) FilterGroups(_ context.Context, filter group.QueryFilter) ([]group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	var groups []group.Group
	for _, grp := range repo.db.group.table {
		if filter.Name != "" && !strings.Contains(strings.ToLower(grp.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.CourseID != nil && grp.CourseID != *filter.CourseID {
			continue
		}
		if filter.Status != nil && grp.Status != *filter.Status {
			continue
		}
		if filter.TeacherName != "" && !repo.teacherNameMatches(grp.TeacherID, filter.TeacherName) {
			continue
		}
		groups = append(groups, repo.hydrate(*grp))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (repo *groupRepository) teacherNameMatches(teacherID int, name string) bool {
	repo.db.teacher.RLock()
	defer repo.db.teacher.RUnlock()

	tch, ok := repo.db.teacher.table[teacherID]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(tch.FullName()), strings.ToLower(name))
}

func (repo *groupRepository) QueryGroupsByTeacher(_ context.Context, teacherID int) ([]group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	var groups []group.Group
	for _, grp := range repo.db.group.table {
		if grp.TeacherID == teacherID {
			groups = append(groups, repo.hydrate(*grp))
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (repo *groupRepository) QueryGroupsByStudent(_ context.Context, studentID int) ([]group.Group, error) {
	repo.db.group.RLock()
	defer repo.db.group.RUnlock()

	var groups []group.Group
	for id, roster := range repo.db.group.rosters {
		for _, sid := range roster {
			if sid == studentID {
				groups = append(groups, repo.hydrate(*repo.db.group.table[id]))
				break
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, grp group.Group) (group.Group, error) {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	orig, ok := repo.db.group.table[grp.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	orig.Name = grp.Name
	orig.TeacherID = grp.TeacherID
	orig.Price = grp.Price
	orig.StartTime = grp.StartTime
	orig.EndTime = grp.EndTime
	orig.DaysOfWeek = grp.DaysOfWeek
	orig.UpdatedAt = grp.UpdatedAt
	return repo.hydrate(*orig), nil
}

// SetRoster swaps the roster and the status under a single lock so the pair
// is never observed apart.
func (repo *groupRepository) SetRoster(_ context.Context, groupID int, studentIDs []int, status group.Status) error {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	grp, ok := repo.db.group.table[groupID]
	if !ok {
		return group.ErrNotFound
	}
	repo.db.group.rosters[groupID] = append([]int(nil), studentIDs...)
	grp.Status = status
	return nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id int) error {
	repo.db.group.Lock()
	defer repo.db.group.Unlock()

	if _, ok := repo.db.group.table[id]; !ok {
		return group.ErrNotFound
	}
	delete(repo.db.group.table, id)
	delete(repo.db.group.rosters, id)
	return nil
}
