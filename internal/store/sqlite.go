package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/patrol/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Assignment CRUD ---

func (s *SQLiteStore) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	s.logger.Debug("sql", "op", "insert", "table", "assignments", "instance", a.InstanceName)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (instance_name, source_instance_name, device_uuid, device_group_name, time, date, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.InstanceName, a.SourceInstanceName, a.DeviceUUID, a.DeviceGroupName,
		a.Time, a.Date, boolToInt(a.Enabled),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("assignment id: %w", err)
	}
	a.ID = uint64(id)
	return nil
}

func (s *SQLiteStore) GetAssignment(ctx context.Context, id uint64) (*model.Assignment, error) {
	s.logger.Debug("sql", "op", "select", "table", "assignments", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, instance_name, source_instance_name, device_uuid, device_group_name, time, date, enabled
		 FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) ListAssignments(ctx context.Context) ([]*model.Assignment, error) {
	s.logger.Debug("sql", "op", "select", "table", "assignments")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, instance_name, source_instance_name, device_uuid, device_group_name, time, date, enabled
		 FROM assignments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateAssignment(ctx context.Context, a *model.Assignment) error {
	s.logger.Debug("sql", "op", "update", "table", "assignments", "id", a.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE assignments
		 SET instance_name = ?, source_instance_name = ?, device_uuid = ?, device_group_name = ?, time = ?, date = ?, enabled = ?
		 WHERE id = ?`,
		a.InstanceName, a.SourceInstanceName, a.DeviceUUID, a.DeviceGroupName,
		a.Time, a.Date, boolToInt(a.Enabled), a.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "assignment", a.ID)
}

func (s *SQLiteStore) DeleteAssignment(ctx context.Context, id uint64) error {
	s.logger.Debug("sql", "op", "delete", "table", "assignments", "id", id)
	_, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*model.Assignment, error) {
	var a model.Assignment
	var enabled int
	err := row.Scan(&a.ID, &a.InstanceName, &a.SourceInstanceName, &a.DeviceUUID,
		&a.DeviceGroupName, &a.Time, &a.Date, &enabled)
	if err != nil {
		return nil, err
	}
	a.Enabled = enabled != 0
	return &a, nil
}

// --- Assignment groups ---

func (s *SQLiteStore) CreateAssignmentGroup(ctx context.Context, g *model.AssignmentGroup) error {
	s.logger.Debug("sql", "op", "insert", "table", "assignment_groups", "name", g.Name)

	idsJSON, err := json.Marshal(g.AssignmentIDs)
	if err != nil {
		return fmt.Errorf("marshal assignment ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assignment_groups (name, assignment_ids) VALUES (?, ?)`,
		g.Name, string(idsJSON))
	return err
}

func (s *SQLiteStore) GetAssignmentGroup(ctx context.Context, name string) (*model.AssignmentGroup, error) {
	s.logger.Debug("sql", "op", "select", "table", "assignment_groups", "name", name)

	var g model.AssignmentGroup
	var idsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, assignment_ids FROM assignment_groups WHERE name = ?`, name,
	).Scan(&g.Name, &idsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &g.AssignmentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal assignment ids: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) ListAssignmentGroups(ctx context.Context) ([]*model.AssignmentGroup, error) {
	s.logger.Debug("sql", "op", "select", "table", "assignment_groups")

	rows, err := s.db.QueryContext(ctx, `SELECT name, assignment_ids FROM assignment_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AssignmentGroup
	for rows.Next() {
		var g model.AssignmentGroup
		var idsJSON string
		if err := rows.Scan(&g.Name, &idsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(idsJSON), &g.AssignmentIDs); err != nil {
			return nil, fmt.Errorf("unmarshal assignment ids: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAssignmentGroup(ctx context.Context, name string) error {
	s.logger.Debug("sql", "op", "delete", "table", "assignment_groups", "name", name)
	_, err := s.db.ExecContext(ctx, `DELETE FROM assignment_groups WHERE name = ?`, name)
	return err
}

// --- Devices ---

func (s *SQLiteStore) CreateDevice(ctx context.Context, d *model.Device) error {
	s.logger.Debug("sql", "op", "insert", "table", "devices", "uuid", d.UUID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (uuid, instance_name, last_host, last_seen) VALUES (?, ?, ?, ?)`,
		d.UUID, d.InstanceName, d.LastHost, formatNullableTime(d.LastSeen))
	return err
}

func (s *SQLiteStore) GetDevice(ctx context.Context, uuid string) (*model.Device, error) {
	s.logger.Debug("sql", "op", "select", "table", "devices", "uuid", uuid)

	var d model.Device
	var lastSeen sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, instance_name, last_host, last_seen FROM devices WHERE uuid = ?`, uuid,
	).Scan(&d.UUID, &d.InstanceName, &d.LastHost, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.LastSeen, err = parseNullableTime(lastSeen); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) ListDevices(ctx context.Context) ([]*model.Device, error) {
	s.logger.Debug("sql", "op", "select", "table", "devices")

	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, instance_name, last_host, last_seen FROM devices ORDER BY uuid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Device
	for rows.Next() {
		var d model.Device
		var lastSeen sql.NullString
		if err := rows.Scan(&d.UUID, &d.InstanceName, &d.LastHost, &lastSeen); err != nil {
			return nil, err
		}
		if d.LastSeen, err = parseNullableTime(lastSeen); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) BatchUpdateDevices(ctx context.Context, devices []*model.Device) error {
	if len(devices) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "batch_update", "table", "devices", "count", len(devices))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch update: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE devices SET instance_name = ?, last_host = ?, last_seen = ? WHERE uuid = ?`)
	if err != nil {
		return fmt.Errorf("prepare batch update: %w", err)
	}
	defer stmt.Close()

	for _, d := range devices {
		if _, err := stmt.ExecContext(ctx, d.InstanceName, d.LastHost, formatNullableTime(d.LastSeen), d.UUID); err != nil {
			return fmt.Errorf("update device %s: %w", d.UUID, err)
		}
	}
	return tx.Commit()
}

// --- Device groups ---

func (s *SQLiteStore) CreateDeviceGroup(ctx context.Context, g *model.DeviceGroup) error {
	s.logger.Debug("sql", "op", "insert", "table", "device_groups", "name", g.Name)

	if len(g.DeviceUUIDs) == 0 {
		return fmt.Errorf("device group %s: empty member list", g.Name)
	}
	uuidsJSON, err := json.Marshal(g.DeviceUUIDs)
	if err != nil {
		return fmt.Errorf("marshal device uuids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO device_groups (name, device_uuids) VALUES (?, ?)`,
		g.Name, string(uuidsJSON))
	return err
}

func (s *SQLiteStore) GetDeviceGroup(ctx context.Context, name string) (*model.DeviceGroup, error) {
	s.logger.Debug("sql", "op", "select", "table", "device_groups", "name", name)

	var g model.DeviceGroup
	var uuidsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, device_uuids FROM device_groups WHERE name = ?`, name,
	).Scan(&g.Name, &uuidsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(uuidsJSON), &g.DeviceUUIDs); err != nil {
		return nil, fmt.Errorf("unmarshal device uuids: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) ListDeviceGroups(ctx context.Context) ([]*model.DeviceGroup, error) {
	s.logger.Debug("sql", "op", "select", "table", "device_groups")

	rows, err := s.db.QueryContext(ctx, `SELECT name, device_uuids FROM device_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DeviceGroup
	for rows.Next() {
		var g model.DeviceGroup
		var uuidsJSON string
		if err := rows.Scan(&g.Name, &uuidsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(uuidsJSON), &g.DeviceUUIDs); err != nil {
			return nil, fmt.Errorf("unmarshal device uuids: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteDeviceGroup(ctx context.Context, name string) error {
	s.logger.Debug("sql", "op", "delete", "table", "device_groups", "name", name)
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_groups WHERE name = ?`, name)
	return err
}

// --- Instances ---

func (s *SQLiteStore) CreateInstance(ctx context.Context, inst *model.Instance) error {
	s.logger.Debug("sql", "op", "insert", "table", "instances", "name", inst.Name)

	geofencesJSON, err := json.Marshal(inst.Geofences)
	if err != nil {
		return fmt.Errorf("marshal geofences: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO instances (name, type, geofences) VALUES (?, ?, ?)`,
		inst.Name, string(inst.Type), string(geofencesJSON))
	return err
}

func (s *SQLiteStore) GetInstance(ctx context.Context, name string) (*model.Instance, error) {
	s.logger.Debug("sql", "op", "select", "table", "instances", "name", name)

	var inst model.Instance
	var geofencesJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, type, geofences FROM instances WHERE name = ?`, name,
	).Scan(&inst.Name, &inst.Type, &geofencesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(geofencesJSON), &inst.Geofences); err != nil {
		return nil, fmt.Errorf("unmarshal geofences: %w", err)
	}
	return &inst, nil
}

func (s *SQLiteStore) ListInstances(ctx context.Context) ([]*model.Instance, error) {
	return s.listInstances(ctx, `SELECT name, type, geofences FROM instances ORDER BY name`)
}

func (s *SQLiteStore) ListInstancesByType(ctx context.Context, typ model.InstanceType) ([]*model.Instance, error) {
	return s.listInstances(ctx,
		`SELECT name, type, geofences FROM instances WHERE type = ? ORDER BY name`, string(typ))
}

func (s *SQLiteStore) listInstances(ctx context.Context, query string, args ...any) ([]*model.Instance, error) {
	s.logger.Debug("sql", "op", "select", "table", "instances")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Instance
	for rows.Next() {
		var inst model.Instance
		var geofencesJSON string
		if err := rows.Scan(&inst.Name, &inst.Type, &geofencesJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(geofencesJSON), &inst.Geofences); err != nil {
			return nil, fmt.Errorf("unmarshal geofences: %w", err)
		}
		out = append(out, &inst)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteInstance(ctx context.Context, name string) error {
	s.logger.Debug("sql", "op", "delete", "table", "instances", "name", name)
	_, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE name = ?`, name)
	return err
}

// --- Geofences ---

func (s *SQLiteStore) CreateGeofence(ctx context.Context, g *model.Geofence) error {
	s.logger.Debug("sql", "op", "insert", "table", "geofences", "name", g.Name)

	dataJSON, err := json.Marshal(g.Data)
	if err != nil {
		return fmt.Errorf("marshal geofence data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO geofences (name, type, data) VALUES (?, ?, ?)`,
		g.Name, g.Type, string(dataJSON))
	return err
}

func (s *SQLiteStore) GetGeofencesByNames(ctx context.Context, names []string) ([]*model.Geofence, error) {
	if len(names) == 0 {
		return nil, nil
	}
	s.logger.Debug("sql", "op", "select", "table", "geofences", "count", len(names))

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, data FROM geofences WHERE name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*model.Geofence)
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		byName[g.Name] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve input order; missing names are silently omitted.
	var out []*model.Geofence
	for _, n := range names {
		if g, ok := byName[n]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *SQLiteStore) ListGeofences(ctx context.Context) ([]*model.Geofence, error) {
	s.logger.Debug("sql", "op", "select", "table", "geofences")

	rows, err := s.db.QueryContext(ctx, `SELECT name, type, data FROM geofences ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteGeofence(ctx context.Context, name string) error {
	s.logger.Debug("sql", "op", "delete", "table", "geofences", "name", name)
	_, err := s.db.ExecContext(ctx, `DELETE FROM geofences WHERE name = ?`, name)
	return err
}

func scanGeofence(row rowScanner) (*model.Geofence, error) {
	var g model.Geofence
	var dataJSON string
	if err := row.Scan(&g.Name, &g.Type, &dataJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dataJSON), &g.Data); err != nil {
		return nil, fmt.Errorf("unmarshal geofence data: %w", err)
	}
	return &g, nil
}

// --- Quest state ---

func (s *SQLiteStore) AddQuest(ctx context.Context, q *model.Quest) error {
	s.logger.Debug("sql", "op", "insert", "table", "quests", "geofence", q.GeofenceName)

	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO quests (geofence_name, stop_id, title, created_at) VALUES (?, ?, ?, ?)`,
		q.GeofenceName, q.StopID, q.Title, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("quest id: %w", err)
	}
	q.ID = uint64(id)
	return nil
}

func (s *SQLiteStore) ClearQuests(ctx context.Context, geofences []*model.Geofence) error {
	if len(geofences) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "delete", "table", "quests", "geofences", len(geofences))

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(geofences)), ",")
	args := make([]any, len(geofences))
	for i, g := range geofences {
		args[i] = g.Name
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM quests WHERE geofence_name IN (`+placeholders+`)`, args...)
	return err
}

func (s *SQLiteStore) CountQuests(ctx context.Context, geofenceName string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quests WHERE geofence_name = ?`, geofenceName).Scan(&n)
	return n, err
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}

func requireRowAffected(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v not found", entity, id)
	}
	return nil
}
