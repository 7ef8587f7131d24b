package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-hrms-lite/internal"
	"github.com/antonio-alexander/go-hrms-lite/internal/data"
	"github.com/antonio-alexander/go-hrms-lite/internal/utilities"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase               = "hrms_lite"
	defaultMongoServerSelectionTimeout = 7 * time.Second
	defaultMongoConnectTimeout         = 10 * time.Second
	defaultMongoSocketTimeout          = 20 * time.Second
)

type mongoStore struct {
	sync.RWMutex
	config struct {
		uri                    string
		database               string
		serverSelectionTimeout time.Duration
		connectTimeout         time.Duration
		socketTimeout          time.Duration
		uniqueIndexes          bool
	}
	client         *mongo.Client
	database       *mongo.Database
	indexesEnsured bool
	utilities.Logger
}

func NewMongo(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Store
} {
	m := &mongoStore{Logger: utilities.NewLogger()}
	m.config.database = defaultMongoDatabase
	m.config.serverSelectionTimeout = defaultMongoServerSelectionTimeout
	m.config.connectTimeout = defaultMongoConnectTimeout
	m.config.socketTimeout = defaultMongoSocketTimeout
	m.config.uniqueIndexes = true
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			m.Logger = v
		}
	}
	return m
}

func (m *mongoStore) employees() *mongo.Collection {
	return m.database.Collection(collectionEmployees)
}

func (m *mongoStore) attendance() *mongo.Collection {
	return m.database.Collection(collectionAttendance)
}

func (m *mongoStore) opened() (indexesEnsured bool, err error) {
	m.RLock()
	defer m.RUnlock()

	if m.database == nil {
		return false, data.ErrNotConnected
	}
	return m.indexesEnsured || !m.config.uniqueIndexes, nil
}

// connected also ensures the unique indexes the first time the server is
// used, in case it couldn't be reached when the service started
func (m *mongoStore) connected(ctx context.Context) error {
	indexesEnsured, err := m.opened()
	if err != nil {
		return err
	}
	if !indexesEnsured {
		if err := m.ensureIndexes(ctx); err != nil {
			m.Error(ctx, "error while ensuring indexes: %s", err)
		}
	}
	return nil
}

func (m *mongoStore) ensureIndexes(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	if !m.config.uniqueIndexes || m.indexesEnsured {
		return nil
	}
	if _, err := m.employees().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "employee_id", Value: 1}},
			Options: options.Index().SetName(indexEmployeeId).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
	}); err != nil {
		return errors.Wrap(err, "creating employee indexes")
	}
	if _, err := m.attendance().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "employee_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetName(indexEmployeeIdDate).SetUnique(true),
	}); err != nil {
		return errors.Wrap(err, "creating attendance indexes")
	}
	m.indexesEnsured = true
	return nil
}

func (m *mongoStore) Configure(envs map[string]string) error {
	m.Lock()
	defer m.Unlock()

	if uri, ok := envs["MONGODB_URI"]; ok {
		m.config.uri = uri
	}
	if database := envs["MONGODB_DATABASE"]; database != "" {
		m.config.database = database
	}
	if s := envs["MONGODB_SERVER_SELECTION_TIMEOUT"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			m.config.serverSelectionTimeout = time.Duration(i) * time.Second
		}
	}
	if s := envs["MONGODB_CONNECT_TIMEOUT"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			m.config.connectTimeout = time.Duration(i) * time.Second
		}
	}
	if s := envs["MONGODB_SOCKET_TIMEOUT"]; s != "" {
		if i, err := strconv.Atoi(s); err == nil && i > 0 {
			m.config.socketTimeout = time.Duration(i) * time.Second
		}
	}
	if s := envs["DATABASE_UNIQUE_INDEXES"]; s != "" {
		if uniqueIndexes, err := strconv.ParseBool(s); err == nil {
			m.config.uniqueIndexes = uniqueIndexes
		}
	}
	return nil
}

// Open initializes the client; like the driver itself it doesn't require
// the server to be reachable, only for the uri to be usable.
func (m *mongoStore) Open(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	if m.config.uri == "" {
		return errors.New("mongodb uri not provided")
	}
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(m.config.uri).
		SetServerSelectionTimeout(m.config.serverSelectionTimeout).
		SetConnectTimeout(m.config.connectTimeout).
		SetSocketTimeout(m.config.socketTimeout))
	if err != nil {
		return errors.Wrap(err, "initializing mongodb client")
	}
	m.client = client
	m.database = client.Database(m.config.database)
	m.Info(ctx, "mongodb client initialized for database: %s", m.config.database)
	return nil
}

func (m *mongoStore) Close(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		m.Error(ctx, "error while disconnecting mongodb: %s", err)
	}
	m.client, m.database = nil, nil
	return nil
}

func (m *mongoStore) Ping(ctx context.Context) error {
	if _, err := m.opened(); err != nil {
		return err
	}
	if err := m.database.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return err
	}
	if err := m.ensureIndexes(ctx); err != nil {
		m.Error(ctx, "error while ensuring indexes: %s", err)
	}
	return nil
}

func (m *mongoStore) EmployeeCreate(ctx context.Context, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	result, err := m.employees().InsertOne(ctx, employeeDocument{
		EmployeeId: stringValue(employeePartial.EmployeeId),
		FullName:   stringValue(employeePartial.FullName),
		Email:      stringValue(employeePartial.Email),
		Department: stringValue(employeePartial.Department),
	})
	if err != nil {
		return nil, mongoDuplicateKeyError(err)
	}
	return m.employeeFind(ctx, bson.M{"_id": result.InsertedID})
}

func (m *mongoStore) employeeFind(ctx context.Context, filter bson.M) (*data.Employee, error) {
	var document employeeDocument

	if err := m.employees().FindOne(ctx, filter).Decode(&document); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, data.ErrEmployeeNotFound
		}
		return nil, err
	}
	return document.toEmployee(), nil
}

func (m *mongoStore) EmployeeRead(ctx context.Context, employeeId string) (*data.Employee, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	return m.employeeFind(ctx, bson.M{"employee_id": employeeId})
}

func (m *mongoStore) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	return m.employeeFind(ctx, bson.M{"email": email})
}

func (m *mongoStore) EmployeesRead(ctx context.Context, search data.EmployeeSearch) ([]*data.Employee, error) {
	var documents []employeeDocument

	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	cursor, err := m.employees().Find(ctx, bson.M{}, options.Find().
		SetSkip(int64(search.Skip)).
		SetLimit(int64(search.Limit)))
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, err
	}
	employees := make([]*data.Employee, 0, len(documents))
	for _, document := range documents {
		employees = append(employees, document.toEmployee())
	}
	return employees, nil
}

func (m *mongoStore) EmployeeUpdate(ctx context.Context, employeeId string, employeePartial data.EmployeePartial) (*data.Employee, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	if updates := employeeUpdates(employeePartial); len(updates) > 0 {
		result, err := m.employees().UpdateOne(ctx,
			bson.M{"employee_id": employeeId},
			bson.M{"$set": updates})
		if err != nil {
			return nil, mongoDuplicateKeyError(err)
		}
		if result.MatchedCount == 0 {
			return nil, data.ErrEmployeeNotFound
		}
	}
	return m.employeeFind(ctx, bson.M{"employee_id": employeeId})
}

func (m *mongoStore) EmployeeDelete(ctx context.Context, employeeId string) error {
	if err := m.connected(ctx); err != nil {
		return err
	}
	result, err := m.employees().DeleteOne(ctx, bson.M{"employee_id": employeeId})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return data.ErrEmployeeNotFound
	}
	return nil
}

func (m *mongoStore) AttendanceCreate(ctx context.Context, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	date, err := data.ParseDate(stringValue(attendancePartial.Date))
	if err != nil {
		return nil, errors.Wrap(err, "parsing attendance date")
	}
	result, err := m.attendance().InsertOne(ctx, attendanceDocument{
		EmployeeId: stringValue(attendancePartial.EmployeeId),
		Date:       date,
		Status:     string(statusValue(attendancePartial.Status)),
	})
	if err != nil {
		return nil, mongoDuplicateKeyError(err)
	}
	return m.attendanceFind(ctx, bson.M{"_id": result.InsertedID})
}

func (m *mongoStore) attendanceFind(ctx context.Context, filter bson.M) (*data.Attendance, error) {
	var document attendanceDocument

	if err := m.attendance().FindOne(ctx, filter).Decode(&document); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, data.ErrAttendanceNotFound
		}
		return nil, err
	}
	return document.toAttendance(), nil
}

func (m *mongoStore) AttendanceRead(ctx context.Context, attendanceId string) (*data.Attendance, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	objectId, err := primitive.ObjectIDFromHex(attendanceId)
	if err != nil {
		return nil, data.ErrAttendanceNotFound
	}
	return m.attendanceFind(ctx, bson.M{"_id": objectId})
}

func (m *mongoStore) AttendanceReadByDate(ctx context.Context, employeeId string, date time.Time) (*data.Attendance, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	return m.attendanceFind(ctx, bson.M{
		"employee_id": employeeId,
		"date":        date,
	})
}

func (m *mongoStore) AttendancesSearch(ctx context.Context, search data.AttendanceSearch, limit int) ([]*data.Attendance, error) {
	var documents []attendanceDocument

	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	filter, err := attendanceFilter(search)
	if err != nil {
		return nil, err
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := m.attendance().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, err
	}
	attendances := make([]*data.Attendance, 0, len(documents))
	for _, document := range documents {
		attendances = append(attendances, document.toAttendance())
	}
	return attendances, nil
}

func (m *mongoStore) AttendanceUpdate(ctx context.Context, attendanceId string, attendancePartial data.AttendancePartial) (*data.Attendance, error) {
	if err := m.connected(ctx); err != nil {
		return nil, err
	}
	objectId, err := primitive.ObjectIDFromHex(attendanceId)
	if err != nil {
		return nil, data.ErrAttendanceNotFound
	}
	if attendancePartial.Status != nil {
		result, err := m.attendance().UpdateOne(ctx,
			bson.M{"_id": objectId},
			bson.M{"$set": bson.M{"status": string(*attendancePartial.Status)}})
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, data.ErrAttendanceNotFound
		}
	}
	return m.attendanceFind(ctx, bson.M{"_id": objectId})
}

func (m *mongoStore) AttendanceDelete(ctx context.Context, attendanceId string) error {
	if err := m.connected(ctx); err != nil {
		return err
	}
	objectId, err := primitive.ObjectIDFromHex(attendanceId)
	if err != nil {
		return data.ErrAttendanceNotFound
	}
	result, err := m.attendance().DeleteOne(ctx, bson.M{"_id": objectId})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return data.ErrAttendanceNotFound
	}
	return nil
}
