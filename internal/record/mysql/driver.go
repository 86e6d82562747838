// Package mysql provides a MySQL implementation of record.Store backed
// by database/sql. The original host framework keeps its file table in
// MariaDB, so this is the driver most installs will run.
package mysql

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/record"
)

// Driver is a MySQL implementation of record.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided settings and
// returns a Driver. It calls Ping to validate the connection before
// returning.
func New(ctx context.Context, cfg config.RecordStore) (*Driver, error) {
	dsn, err := withFoundRows(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime.Std())
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime.Std())

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout.Std())
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// --- record.Store implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

const selectColumns = `name, doctype, docname, file_name, file_url,
	COALESCE(remote_id, ''), is_private, size, COALESCE(content_hash, ''),
	created_at, modified_at`

func (d *Driver) Get(ctx context.Context, name string) (*record.Attachment, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM attachments WHERE name = ?`, name)

	var a record.Attachment
	err := row.Scan(&a.Name, &a.Doctype, &a.Docname, &a.FileName, &a.FileURL,
		&a.RemoteID, &a.IsPrivate, &a.Size, &a.ContentHash,
		&a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		return nil, mapError(err, "failed to get attachment")
	}
	return &a, nil
}

func (d *Driver) FindUnmigrated(ctx context.Context) ([]*record.Attachment, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM attachments
		 WHERE remote_id IS NULL OR remote_id = ''
		 ORDER BY created_at`)
	if err != nil {
		return nil, mapError(err, "failed to list unmigrated attachments")
	}
	defer rows.Close()

	var result []*record.Attachment
	for rows.Next() {
		var a record.Attachment
		if err := rows.Scan(&a.Name, &a.Doctype, &a.Docname, &a.FileName, &a.FileURL,
			&a.RemoteID, &a.IsPrivate, &a.Size, &a.ContentHash,
			&a.CreatedAt, &a.ModifiedAt); err != nil {
			return nil, mapError(err, "failed to scan attachment")
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to iterate attachments")
	}
	return result, nil
}

func (d *Driver) Save(ctx context.Context, a *record.Attachment) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE attachments
		 SET file_url = ?, remote_id = NULLIF(?, ''), content_hash = ?, modified_at = NOW()
		 WHERE name = ?`,
		a.FileURL, a.RemoteID, a.ContentHash, a.Name)
	if err != nil {
		return mapError(err, "failed to save attachment")
	}
	return requireRow(res, "attachment "+a.Name+" does not exist")
}

func (d *Driver) Delete(ctx context.Context, name string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM attachments WHERE name = ?`, name)
	if err != nil {
		return mapError(err, "failed to delete attachment")
	}
	return requireRow(res, "attachment "+name+" does not exist")
}

// withFoundRows forces clientFoundRows so RowsAffected counts matched
// rows. Without it an UPDATE that changes no column values reports zero
// rows and an unchanged re-save would be misread as not_found.
func withFoundRows(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	c.ClientFoundRows = true
	return c.FormatDSN(), nil
}

// requireRow converts a zero-row update into a not_found error.
func requireRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "rows affected")
	}
	if n == 0 {
		return errs.New(errs.ErrKindNotFound, msg)
	}
	return nil
}
