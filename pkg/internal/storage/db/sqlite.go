//go:build !no_sqlite

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

// init 注册SQLite dialector工厂.
func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}

// createSQLiteDialector 创建SQLite dialector.
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(dsn)
}
