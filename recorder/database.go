package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/physics"
)

/*
only live bodies are stored, one row per body per recorded frame.

really only 1 worker is useful for sqlite since it allows only 1 writer at a time.
*/

const schema = `
CREATE TABLE bodies (
	frame 	INTEGER,
	id 		INTEGER, -- population slot
	x 		REAL,
	y 		REAL,
	z 		REAL,
	vx 		REAL,
	vy 		REAL,
	vz 		REAL,
	mass 	REAL,
	radius 	REAL,
	primary_body INTEGER,
	occluded 	INTEGER);
`

const indices = `
CREATE INDEX idx_frame ON bodies (frame, id);
CREATE INDEX idx_id ON bodies (id);
`

const insert = `INSERT INTO bodies VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
const queryFrame = `SELECT id, x, y, z, vx, vy, vz, mass, radius, primary_body, occluded FROM bodies WHERE frame = ? ORDER BY id ASC;`

// ErrExists is returned when the database file is already present.
var ErrExists = errors.New("database already exists")

// SQLiteSink writes frames into a bodies table.
type SQLiteSink struct {
	mu   sync.Mutex
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenSQLite creates and initializes a new database in filename. It refuses
// to touch an existing file.
func OpenSQLite(filename string) (*SQLiteSink, error) {
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, filename)
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?_journal_mode=OFF&_synchronous=OFF")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	stmt, err := db.Prepare(insert)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	return &SQLiteSink{db: db, stmt: stmt}, nil
}

func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteFrame stores the live bodies of f in one transaction.
func (s *SQLiteSink) WriteFrame(f *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin frame %d: %w", f.Number, err)
	}
	stmt := tx.Stmt(s.stmt)

	for _, b := range f.Bodies {
		if !b.Alive {
			continue
		}
		_, err = stmt.Exec(
			f.Number,
			int(b.Handle),
			b.Pos[0], b.Pos[1], b.Pos[2],
			b.Vel[0], b.Vel[1], b.Vel[2],
			b.Mass,
			b.Radius,
			boolint(b.Primary),
			boolint(b.Occluded))
		if err != nil {
			break
		}
	}

	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert frame %d: %w", f.Number, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frame %d: %w", f.Number, err)
	}
	return nil
}

// LoadFrame reads back the bodies recorded for one frame, ordered by slot.
func (s *SQLiteSink) LoadFrame(frame uint64) ([]physics.View, error) {
	rows, err := s.db.Query(queryFrame, frame)
	if err != nil {
		return nil, fmt.Errorf("query frame %d: %w", frame, err)
	}
	defer rows.Close()

	var out []physics.View
	for rows.Next() {
		var (
			v                 physics.View
			id                int
			primary, occluded int
			pos, vel          mgl64.Vec3
		)
		err := rows.Scan(&id, &pos[0], &pos[1], &pos[2], &vel[0], &vel[1], &vel[2],
			&v.Mass, &v.Radius, &primary, &occluded)
		if err != nil {
			return nil, fmt.Errorf("scan frame %d: %w", frame, err)
		}
		v.Handle = physics.Handle(id)
		v.Pos, v.Vel = pos, vel
		v.Primary, v.Occluded, v.Alive = primary == 1, occluded == 1, true
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close builds the lookup indices and closes the database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(indices)
	return errors.Join(err, s.stmt.Close(), s.db.Close())
}
