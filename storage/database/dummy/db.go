// Package dummydb is the in-memory store used by tests and local runs
// without Postgres. Each aggregate lives in its own mutex-guarded table.
package dummydb

import (
	"sync"

	"github.com/RealCodeCrafter/ERP/core/attendance"
	"github.com/RealCodeCrafter/ERP/core/course"
	"github.com/RealCodeCrafter/ERP/core/group"
	"github.com/RealCodeCrafter/ERP/core/lesson"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/payment"
	"github.com/RealCodeCrafter/ERP/core/student"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

type (
	DB struct {
		student    *studentTable
		teacher    *teacherTable
		operator   *operatorTable
		course     *courseTable
		group      *groupTable
		lesson     *lessonTable
		payment    *paymentTable
		attendance *attendanceTable
	}

	studentTable struct {
		sync.RWMutex
		table   map[int]*student.Student
		pkCount int
	}

	teacherTable struct {
		sync.RWMutex
		table   map[int]*teacher.Teacher
		pkCount int
	}

	operatorTable struct {
		sync.RWMutex
		table   map[int]*operator.Operator
		pkCount int
	}

	courseTable struct {
		sync.RWMutex
		table   map[int]*course.Course
		pkCount int
	}

	// groupTable keeps the roster as ids; reads hydrate from the student
	// table.
	groupTable struct {
		sync.RWMutex
		table   map[int]*group.Group
		rosters map[int][]int
		pkCount int
	}

	lessonTable struct {
		sync.RWMutex
		table   map[int]*lesson.Lesson
		pkCount int
	}

	paymentTable struct {
		sync.RWMutex
		table   map[int]*payment.Payment
		pkCount int
	}

	attendanceTable struct {
		sync.RWMutex
		table   map[int]*attendance.Attendance
		pkCount int
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:    &studentTable{table: make(map[int]*student.Student)},
		teacher:    &teacherTable{table: make(map[int]*teacher.Teacher)},
		operator:   &operatorTable{table: make(map[int]*operator.Operator)},
		course:     &courseTable{table: make(map[int]*course.Course)},
		group:      &groupTable{table: make(map[int]*group.Group), rosters: make(map[int][]int)},
		lesson:     &lessonTable{table: make(map[int]*lesson.Lesson)},
		payment:    &paymentTable{table: make(map[int]*payment.Payment)},
		attendance: &attendanceTable{table: make(map[int]*attendance.Attendance)},
	}
	return db, nil
}
