package diag

import (
	"database/sql"
	"fmt"
	"os"

	// Registers the sqlite3 driver under database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
)

// cycleRow is one retired-or-not cycle of one pipeline stage, the unit the
// recorder persists.
type cycleRow struct {
	cycle   uint64
	stage   string
	pc      uint32
	trace   string
	stalled bool
	flushed bool
}

// TraceRecorder buffers cycleRows and batches them into a SQLite database,
// the teacher's own tracing.SQLiteTraceWriter shape (buffer, batch-sized
// Flush, prepared INSERT) adapted to this simulator's per-stage-per-cycle
// trace instead of akita's task/delay/progress events.
type TraceRecorder struct {
	db        *sql.DB
	statement *sql.Stmt

	dbPath    string
	buffered  []cycleRow
	batchSize int
}

// NewTraceRecorder creates a new SQLite database at path and prepares its
// trace table; a file already at path is an error. If path is empty, a
// unique filename is generated so concurrent runs never collide.
func NewTraceRecorder(path string) (*TraceRecorder, error) {
	if path == "" {
		path = "mipsperf_trace_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("trace: %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open: %w", err)
	}

	r := &TraceRecorder{db: db, dbPath: path, batchSize: 1000}

	if err := r.init(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func (r *TraceRecorder) init() error {
	_, err := r.db.Exec(`
		CREATE TABLE trace (
			cycle   INTEGER NOT NULL,
			stage   VARCHAR(16) NOT NULL,
			pc      INTEGER NOT NULL,
			trace   TEXT NOT NULL,
			stalled BOOLEAN NOT NULL,
			flushed BOOLEAN NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("trace: create table: %w", err)
	}

	if _, err := r.db.Exec(`CREATE INDEX trace_cycle_index ON trace (cycle);`); err != nil {
		return fmt.Errorf("trace: create index: %w", err)
	}

	stmt, err := r.db.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("trace: prepare: %w", err)
	}
	r.statement = stmt

	return nil
}

// Record buffers one stage's outcome for cycle, flushing automatically once
// batchSize rows have accumulated.
func (r *TraceRecorder) Record(cycle uint64, stage string, pc uint32, trace string, stalled, flushed bool) error {
	r.buffered = append(r.buffered, cycleRow{cycle, stage, pc, trace, stalled, flushed})
	if len(r.buffered) >= r.batchSize {
		return r.Flush()
	}
	return nil
}

// Flush writes every buffered row inside a single transaction.
func (r *TraceRecorder) Flush() error {
	if len(r.buffered) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("trace: begin: %w", err)
	}

	stmt := tx.Stmt(r.statement)
	for _, row := range r.buffered {
		if _, err := stmt.Exec(row.cycle, row.stage, row.pc, row.trace, row.stalled, row.flushed); err != nil {
			tx.Rollback()
			return fmt.Errorf("trace: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("trace: commit: %w", err)
	}

	r.buffered = nil
	return nil
}

// Path returns the database file this recorder writes to.
func (r *TraceRecorder) Path() string { return r.dbPath }

// Close flushes any pending rows and closes the underlying database.
func (r *TraceRecorder) Close() error {
	if err := r.Flush(); err != nil {
		r.db.Close()
		return err
	}
	return r.db.Close()
}
