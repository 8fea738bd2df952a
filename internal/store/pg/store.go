// Package pg implementa domain.IdentityRepository sobre PostgreSQL (pgx).
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB es el subconjunto de pgxpool.Pool que usa el store.
// pgxmock.PgxPoolIface lo satisface en tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	db  DB
	now func() time.Time
}

var _ domain.IdentityRepository = (*Store)(nil)

// PoolConfig ajusta el pool; los ceros dejan el default de pgxpool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// Open crea el pool y verifica conectividad.
func Open(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if pc.MaxConns > 0 {
		pcfg.MaxConns = int32(pc.MaxConns)
	}
	if pc.MinConns > 0 {
		pcfg.MinConns = int32(pc.MinConns)
	}
	if pc.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = pc.ConnMaxLifetime
		pcfg.MaxConnIdleTime = pc.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	logger.From(ctx).Info("pg pool ready",
		logger.Component("store.pg"),
		logger.String("dsn", util.MaskDSN(dsn)),
		logger.Int("max_conns", int(pcfg.MaxConns)),
	)
	return pool, nil
}

func New(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock reemplaza el reloj usado para updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

const identityColumns = `id::text, email, password_hash, first_name, last_name, is_active, role,
	is_verified, avatar, pref_notifications, pref_theme, last_login_at,
	COALESCE(verify_token_hash, ''), verify_token_expires_at,
	COALESCE(reset_token_hash, ''), reset_token_expires_at,
	created_at, updated_at`

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		it   domain.Identity
		role string
	)
	err := row.Scan(
		&it.ID, &it.Email, &it.PasswordHash, &it.FirstName, &it.LastName, &it.IsActive, &role,
		&it.IsVerified, &it.Avatar, &it.Preferences.Notifications, &it.Preferences.Theme, &it.LastLoginAt,
		&it.VerifyTokenHash, &it.VerifyTokenExpiresAt,
		&it.ResetTokenHash, &it.ResetTokenExpiresAt,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Role = domain.Role(role)
	return &it, nil
}

// tokenColumns resuelve las columnas del slot. Nunca viene de input externo.
func tokenColumns(kind domain.TokenKind) (hashCol, expCol string, err error) {
	switch kind {
	case domain.TokenEmailVerify:
		return "verify_token_hash", "verify_token_expires_at", nil
	case domain.TokenPasswordReset:
		return "reset_token_hash", "reset_token_expires_at", nil
	default:
		return "", "", fmt.Errorf("pg: unknown token kind %q", kind)
	}
}

func (s *Store) Create(ctx context.Context, in domain.CreateIdentityInput) (*domain.Identity, error) {
	role := in.Role
	if !role.Valid() {
		role = domain.RoleUser
	}
	now := s.now().UTC()
	row := s.db.QueryRow(ctx, `
		INSERT INTO identities
		    (id, email, password_hash, first_name, last_name, role, pref_notifications, pref_theme, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+identityColumns,
		uuid.NewString(), domain.NormalizeEmail(in.Email), in.PasswordHash, in.FirstName, in.LastName,
		string(role), domain.DefaultPreferences.Notifications, domain.DefaultPreferences.Theme, now,
	)
	it, err := scanIdentity(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("pg: create identity: %w", err)
	}
	return it, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return s.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE lower(email) = $1`, domain.NormalizeEmail(email))
}

func (s *Store) getOne(ctx context.Context, q string, arg any) (*domain.Identity, error) {
	it, err := scanIdentity(s.db.QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get identity: %w", err)
	}
	return it, nil
}

func (s *Store) SetSingleUseToken(ctx context.Context, id string, kind domain.TokenKind, hash string, expiresAt time.Time) error {
	hashCol, expCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	return s.exec(ctx, "set token",
		`UPDATE identities SET `+hashCol+` = $2, `+expCol+` = $3, updated_at = $4 WHERE id = $1`,
		id, hash, expiresAt.UTC(), s.now().UTC())
}

func (s *Store) ClearSingleUseToken(ctx context.Context, id string, kind domain.TokenKind) error {
	hashCol, expCol, err := tokenColumns(kind)
	if err != nil {
		return err
	}
	return s.exec(ctx, "clear token",
		`UPDATE identities SET `+hashCol+` = NULL, `+expCol+` = NULL, updated_at = $2 WHERE id = $1`,
		id, s.now().UTC())
}

// ConsumeSingleUseToken compara, limpia y aplica la transición en un único
// UPDATE. Dos consumos concurrentes del mismo hash: sólo uno ve la fila.
func (s *Store) ConsumeSingleUseToken(ctx context.Context, kind domain.TokenKind, hash string, now time.Time, t domain.Transition) (*domain.Identity, error) {
	hashCol, expCol, err := tokenColumns(kind)
	if err != nil || hash == "" {
		return nil, domain.ErrTokenNotFound
	}
	row := s.db.QueryRow(ctx, `
		UPDATE identities
		   SET `+hashCol+` = NULL,
		       `+expCol+` = NULL,
		       is_verified = is_verified OR $3,
		       password_hash = COALESCE(NULLIF($4, ''), password_hash),
		       updated_at = $5
		 WHERE `+hashCol+` = $1
		   AND `+expCol+` > $2
		RETURNING `+identityColumns,
		hash, now.UTC(), t.MarkVerified, t.PasswordHash, s.now().UTC(),
	)
	it, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: consume token: %w", err)
	}
	return it, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.exec(ctx, "update password",
		`UPDATE identities SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, s.now().UTC())
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, "touch last login",
		`UPDATE identities SET last_login_at = $2, updated_at = $3 WHERE id = $1`, id, at.UTC(), s.now().UTC())
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	return s.exec(ctx, "set active",
		`UPDATE identities SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, s.now().UTC())
}

func (s *Store) SetRole(ctx context.Context, id string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("pg: invalid role %q", role)
	}
	return s.exec(ctx, "set role",
		`UPDATE identities SET role = $2, updated_at = $3 WHERE id = $1`, id, string(role), s.now().UTC())
}

// exec corre un UPDATE por id; cero filas afectadas es ErrNotFound.
func (s *Store) exec(ctx context.Context, op, q string, id string, args ...any) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := s.db.Exec(ctx, q, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("pg: %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

// Pool devuelve el pool de pgx para métricas; nil si db no es un pool real.
func (s *Store) Pool() *pgxpool.Pool {
	p, _ := s.db.(*pgxpool.Pool)
	return p
}

func (s *Store) Close() { s.db.Close() }
