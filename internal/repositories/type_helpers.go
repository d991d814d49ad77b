package repositories

import (
	"context"
	"strings"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier 为连接池与事务共同的执行面。
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn 在事务内时返回 sess.Tx()，否则返回连接池。
func conn(db *pgxpool.Pool, sess txmanager.Session) querier {
	if sess != nil {
		return sess.Tx()
	}
	return db
}

// likePattern 生成大小写不敏感子串匹配所需的 ILIKE 模式，转义通配符。
func likePattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(value) + "%"
}

// nullableString 将空串视为 NULL。
func nullableString(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
