package store

import (
	"strings"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal/data"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type employeeDocument struct {
	Id         primitive.ObjectID `bson:"_id,omitempty"`
	EmployeeId string             `bson:"employee_id"`
	FullName   string             `bson:"full_name"`
	Email      string             `bson:"email"`
	Department string             `bson:"department"`
}

func (e employeeDocument) toEmployee() *data.Employee {
	return &data.Employee{
		Id:         e.Id.Hex(),
		EmployeeId: e.EmployeeId,
		FullName:   e.FullName,
		Email:      e.Email,
		Department: e.Department,
	}
}

type attendanceDocument struct {
	Id         primitive.ObjectID `bson:"_id,omitempty"`
	EmployeeId string             `bson:"employee_id"`
	Date       time.Time          `bson:"date"`
	Status     string             `bson:"status"`
}

func (a attendanceDocument) toAttendance() *data.Attendance {
	return &data.Attendance{
		Id:         a.Id.Hex(),
		EmployeeId: a.EmployeeId,
		Date:       data.FormatDate(a.Date),
		Status:     data.AttendanceStatus(a.Status),
	}
}

func employeeUpdates(employeePartial data.EmployeePartial) bson.M {
	updates := bson.M{}
	if employeePartial.FullName != nil {
		updates["full_name"] = *employeePartial.FullName
	}
	if employeePartial.Email != nil {
		updates["email"] = *employeePartial.Email
	}
	if employeePartial.Department != nil {
		updates["department"] = *employeePartial.Department
	}
	return updates
}

func attendanceFilter(search data.AttendanceSearch) (bson.M, error) {
	filter := bson.M{}
	if search.EmployeeId != "" {
		filter["employee_id"] = search.EmployeeId
	}
	from, to, err := search.Range()
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		date := bson.M{}
		if from != nil {
			date["$gte"] = *from
		}
		if to != nil {
			date["$lte"] = *to
		}
		filter["date"] = date
	}
	return filter, nil
}

// mongoDuplicateKeyError maps a unique index violation to the conflict it
// represents, the index name is part of the server's error message.
func mongoDuplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	switch message := err.Error(); {
	default:
		return err
	case strings.Contains(message, indexEmployeeIdDate):
		return data.ErrAttendanceExists
	case strings.Contains(message, indexEmail):
		return data.ErrEmailExists
	case strings.Contains(message, indexEmployeeId):
		return data.ErrEmployeeIdExists
	}
}
