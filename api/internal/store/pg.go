package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// PGLog — тот же журнал в Postgres; при каждой записи лишние старые строки удаляются.
type PGLog struct {
	DB  *sql.DB
	cap int
}

const schema = `
create table if not exists ocr_log (
	id         bigserial primary key,
	created_at timestamptz not null default now(),
	engine     text not null,
	status     text not null,
	task       text not null default '',
	drawings   jsonb not null default '[]',
	text       text not null
)`

func OpenPG(ctx context.Context, dsn string, capacity int) (*PGLog, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ocr_log: %w", err)
	}
	return &PGLog{DB: db, cap: capOrDefault(capacity)}, nil
}

func (l *PGLog) Append(ctx context.Context, e Entry) error {
	if e.Drawings == nil {
		e.Drawings = []string{}
	}
	js, _ := json.Marshal(e.Drawings)
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const ins = `insert into ocr_log(created_at, engine, status, task, drawings, text) values ($1,$2,$3,$4,$5,$6)`
	if _, err := tx.ExecContext(ctx, ins, e.Time, e.Engine, e.Status, e.Task, js, e.Text); err != nil {
		return fmt.Errorf("insert ocr_log: %w", err)
	}
	const trim = `delete from ocr_log where id not in (select id from ocr_log order by id desc limit $1)`
	if _, err := tx.ExecContext(ctx, trim, l.cap); err != nil {
		return fmt.Errorf("trim ocr_log: %w", err)
	}
	return tx.Commit()
}

func (l *PGLog) List(ctx context.Context) ([]Entry, error) {
	const q = `
select created_at, engine, status, task, drawings, text
from ocr_log
order by id desc
limit $1`
	rows, err := l.DB.QueryContext(ctx, q, l.cap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			js []byte
		)
		if err := rows.Scan(&e.Time, &e.Engine, &e.Status, &e.Task, &js, &e.Text); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(js, &e.Drawings); err != nil || e.Drawings == nil {
			e.Drawings = []string{}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// старые сверху, как в файловом журнале
	slices.Reverse(out)
	if out == nil {
		out = []Entry{}
	}
	return out, nil
}

func (l *PGLog) Clear(ctx context.Context) error {
	_, err := l.DB.ExecContext(ctx, `delete from ocr_log`)
	return err
}

// Ping для /health.
func (l *PGLog) Ping(ctx context.Context) error { return l.DB.PingContext(ctx) }

func (l *PGLog) Close() error { return l.DB.Close() }
