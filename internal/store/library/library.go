package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"glassbox/internal/model"
)

// DB wraps the SQLite database holding the user's library and logs.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pool connection would otherwise get its own empty database.
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS videos (
	  video_id TEXT PRIMARY KEY,
	  title TEXT NOT NULL,
	  description TEXT,
	  thumbnail_url TEXT,
	  rating REAL NOT NULL DEFAULT 0,
	  genres TEXT,
	  channel_name TEXT,
	  related_ids TEXT,
	  saved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_videos_saved ON videos(saved_at);
	CREATE TABLE IF NOT EXISTS interactions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  user_id TEXT NOT NULL,
	  video_id TEXT NOT NULL,
	  video_title TEXT,
	  kind TEXT NOT NULL,
	  ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(ts);
	CREATE TABLE IF NOT EXISTS search_log (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  user_id TEXT NOT NULL,
	  query TEXT NOT NULL,
	  ts INTEGER NOT NULL
	);
	`)
	return err
}

// Ready reports whether the store is reachable. The feed engine polls
// this before starting a run.
func (d *DB) Ready(ctx context.Context) bool {
	return d.sql.PingContext(ctx) == nil
}

// UpsertVideo creates or replaces a video keyed by its id and returns the
// stored row.
func (d *DB) UpsertVideo(ctx context.Context, v model.Video) (model.Video, error) {
	if v.SavedAt.IsZero() {
		v.SavedAt = time.Now().UTC()
	}
	genres, _ := json.Marshal(v.Genres)
	related, _ := json.Marshal(v.RelatedIDs)
	_, err := d.sql.ExecContext(ctx, `
	INSERT INTO videos(video_id, title, description, thumbnail_url, rating, genres, channel_name, related_ids, saved_at)
	VALUES(?,?,?,?,?,?,?,?,?)
	ON CONFLICT(video_id) DO UPDATE SET
	  title=excluded.title, description=excluded.description,
	  thumbnail_url=excluded.thumbnail_url, rating=excluded.rating,
	  genres=excluded.genres, channel_name=excluded.channel_name,
	  related_ids=excluded.related_ids, saved_at=excluded.saved_at`,
		v.ID, v.Title, v.Description, v.ThumbnailURL, v.Rating, string(genres), v.ChannelName, string(related), v.SavedAt.Unix())
	if err != nil {
		return model.Video{}, err
	}
	return d.GetVideo(ctx, v.ID)
}

// GetVideo returns one stored video by id.
func (d *DB) GetVideo(ctx context.Context, id string) (model.Video, error) {
	row := d.sql.QueryRowContext(ctx, `
	SELECT video_id, title, description, thumbnail_url, rating, genres, channel_name, related_ids, saved_at
	FROM videos WHERE video_id=?`, id)
	return scanVideo(row)
}

// ListVideos returns the full library, newest first.
func (d *DB) ListVideos(ctx context.Context) ([]model.Video, error) {
	rows, err := d.sql.QueryContext(ctx, `
	SELECT video_id, title, description, thumbnail_url, rating, genres, channel_name, related_ids, saved_at
	FROM videos ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanVideo(r rowScanner) (model.Video, error) {
	var v model.Video
	var genres, related sql.NullString
	var savedAt int64
	if err := r.Scan(&v.ID, &v.Title, &v.Description, &v.ThumbnailURL, &v.Rating, &genres, &v.ChannelName, &related, &savedAt); err != nil {
		return model.Video{}, err
	}
	if genres.Valid {
		_ = json.Unmarshal([]byte(genres.String), &v.Genres)
	}
	if related.Valid {
		_ = json.Unmarshal([]byte(related.String), &v.RelatedIDs)
	}
	v.SavedAt = time.Unix(savedAt, 0).UTC()
	return v, nil
}

// AppendInteraction stores one interaction log entry.
func (d *DB) AppendInteraction(ctx context.Context, in model.Interaction) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO interactions(user_id, video_id, video_title, kind, ts) VALUES(?,?,?,?,?)`,
		in.UserID, in.VideoID, in.VideoTitle, in.Kind, in.Timestamp.Unix())
	return err
}

// ListInteractions returns interactions in [start, end), oldest first.
func (d *DB) ListInteractions(ctx context.Context, start, end time.Time) ([]model.Interaction, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT user_id, video_id, video_title, kind, ts FROM interactions WHERE ts>=? AND ts<? ORDER BY ts`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		var ts int64
		if err := rows.Scan(&in.UserID, &in.VideoID, &in.VideoTitle, &in.Kind, &ts); err != nil {
			return nil, err
		}
		in.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, in)
	}
	return out, rows.Err()
}

// AppendSearch stores one search log entry.
func (d *DB) AppendSearch(ctx context.Context, q model.SearchQuery) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO search_log(user_id, query, ts) VALUES(?,?,?)`,
		q.UserID, q.Query, q.Timestamp.Unix())
	return err
}

// CountInteractions returns the number of interaction rows, used by the
// stats surface.
func (d *DB) CountInteractions(ctx context.Context) (int, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`)
	var n int
	err := row.Scan(&n)
	return n, err
}
