package dbsource

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Params are pre-built connection credentials for a relational store.
type Params struct {
	Host     string `validate:"required"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	Port     int    `validate:"required,min=1,max=65535"`
}

// DSN renders the parameters in key=value form.
func (p Params) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		p.Host, p.Port, p.DBName, p.User, p.Password)
}

// ParamsFromEnv reads connection credentials from the PG* environment
// variables, loading them from a .env file first when envFile is set.
func ParamsFromEnv(envFile string) (Params, error) {
	if envFile != `` {
		if err := godotenv.Load(envFile); err != nil {
			return Params{}, fmt.Errorf("loading %q: %w", envFile, err)
		}
	}
	port := 5432
	if v := os.Getenv("PGPORT"); v != `` {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("%w: PGPORT %q", ErrMissingParameter, v)
		}
		port = p
	}
	params := Params{
		Host:     os.Getenv("PGHOST"),
		DBName:   os.Getenv("PGDATABASE"),
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
		Port:     port,
	}
	if err := validate.Struct(params); err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrMissingParameter, err)
	}
	return params, nil
}

// Open dials the store with the given credentials. The caller owns the
// returned handle and must close it once the stream is exhausted.
func Open(p Params) (*sql.DB, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingParameter, err)
	}
	return sql.Open("pgx", p.DSN())
}
