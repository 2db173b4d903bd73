package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// DBType 资产记录库的数据库类型.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	MySQL      DBType = "mysql"
	SQLite     DBType = "sqlite"
)

const (
	DefaultDatabaseHost    = "localhost"
	DefaultDatabasePort    = 5432
	DefaultDatabaseUser    = "postgres"
	DefaultDatabaseName    = "blink"
	DefaultDatabaseSSLMode = "disable"
	DefaultMaxOpenConns    = 0 // 0 表示不限制
	DefaultMaxIdleConns    = 5
)

// DBConfig 资产记录库配置，默认 sqlite 便于单机起服.
type DBConfig struct {
	Type         DBType `mapstructure:"type"           rule:"oneof=postgresql mysql sqlite"`
	Host         string `mapstructure:"host"           rule:"hostname"`
	Port         int    `mapstructure:"port"           rule:"min=1,max=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// GetDBType 返回类型的展示名.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case PostgreSQL:
		return "PostgreSQL"
	case MySQL:
		return "MySQL"
	case SQLite:
		return "SQLite"
	default:
		return "Unknown"
	}
}

// GetDSN 按数据库类型拼接连接串.
func (c *DBConfig) GetDSN() string {
	switch c.Type {
	case PostgreSQL:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	case MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case SQLite:
		return fmt.Sprintf("file:%s.db", c.Database)
	default:
		return ""
	}
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", DefaultDatabaseHost)
	v.SetDefault("db.port", DefaultDatabasePort)
	v.SetDefault("db.user", DefaultDatabaseUser)
	v.SetDefault("db.password", "")
	v.SetDefault("db.database", DefaultDatabaseName)
	v.SetDefault("db.sslmode", DefaultDatabaseSSLMode)
	v.SetDefault("db.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("db.max_idle_conns", DefaultMaxIdleConns)
}
