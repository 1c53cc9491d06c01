package corelib

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"lumen/internal/object"
	"lumen/internal/vm"
)

// dbConn is a registered connection backing one Lumen Db instance,
// grounded on internal/database/db_manager.go's DBConn: a driver-mapped
// *sql.DB plus bookkeeping timestamps. Lumen Instances have no room for
// a raw Go pointer, so the instance's one field holds this map's key
// instead (spec.md §3, ObjInstance's fixed Value-only field array).
type dbConn struct {
	db       *sql.DB
	lastUsed time.Time
}

var (
	dbMu      sync.Mutex
	dbConns   = map[int64]*dbConn{}
	dbNextID  int64
)

// registerDb installs the Db class (SPEC_FULL.md §3's domain-stack
// wiring of the teacher's database/sql drivers): Db.open(driver, dsn)
// is a static factory returning a new instance; .query/.exec/.close
// are instance methods over the connection that instance's field
// names by id.
func registerDb(v *vm.VM, cls *classes) {
	driverName := func(name string) (string, bool) {
		switch name {
		case "sqlite", "sqlite3":
			return "sqlite3", true
		case "sqlite-pure":
			return "sqlite", true
		case "postgres", "postgresql":
			return "postgres", true
		case "mysql":
			return "mysql", true
		case "mssql", "sqlserver":
			return "sqlserver", true
		default:
			return "", false
		}
	}

	bindPrimitive(v, cls.db, true, "open(_,_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		driverArg, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "Db.open expects a driver name string")
			return object.Null, false
		}
		dsnArg, ok := args[2].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "Db.open expects a DSN string")
			return object.Null, false
		}
		driver, ok := driverName(driverArg.Value)
		if !ok {
			v.RuntimeError(f, "unsupported database driver '%s'", driverArg.Value)
			return object.Null, false
		}
		sqlDB, err := sql.Open(driver, dsnArg.Value)
		if err != nil {
			v.RuntimeError(f, "failed to open database: %v", err)
			return object.Null, false
		}
		if err := sqlDB.Ping(); err != nil {
			sqlDB.Close()
			v.RuntimeError(f, "failed to connect to database: %v", err)
			return object.Null, false
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)

		dbMu.Lock()
		dbNextID++
		id := dbNextID
		dbConns[id] = &dbConn{db: sqlDB, lastUsed: time.Now()}
		dbMu.Unlock()

		inst := v.NewInstance(cls.db)
		inst.Fields[0] = object.Number(float64(id))
		return object.Obj(inst), true
	})

	lookup := func(f *object.Fiber, recv object.Value) (*dbConn, bool) {
		inst, ok := recv.AsObject().(*object.Instance)
		if !ok || len(inst.Fields) == 0 {
			v.RuntimeError(f, "receiver is not a Db")
			return nil, false
		}
		id := int64(inst.Fields[0].AsNumber())
		dbMu.Lock()
		conn, ok := dbConns[id]
		dbMu.Unlock()
		if !ok {
			v.RuntimeError(f, "database connection is closed")
			return nil, false
		}
		conn.lastUsed = time.Now()
		return conn, true
	}

	bindPrimitive(v, cls.db, false, "exec(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		conn, ok := lookup(f, args[0])
		if !ok {
			return object.Null, false
		}
		query, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "Db.exec expects a SQL string")
			return object.Null, false
		}
		result, err := conn.db.Exec(query.Value)
		if err != nil {
			v.RuntimeError(f, "exec failed: %v", err)
			return object.Null, false
		}
		affected, err := result.RowsAffected()
		if err != nil {
			v.RuntimeError(f, "exec failed: %v", err)
			return object.Null, false
		}
		return object.Number(float64(affected)), true
	})

	bindPrimitive(v, cls.db, false, "query(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		conn, ok := lookup(f, args[0])
		if !ok {
			return object.Null, false
		}
		query, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "Db.query expects a SQL string")
			return object.Null, false
		}
		rows, err := conn.db.Query(query.Value)
		if err != nil {
			v.RuntimeError(f, "query failed: %v", err)
			return object.Null, false
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			v.RuntimeError(f, "query failed: %v", err)
			return object.Null, false
		}

		results := v.NewList()
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				v.RuntimeError(f, "query failed: %v", err)
				return object.Null, false
			}
			row := v.NewMap()
			for i, col := range columns {
				row.Set(object.Obj(v.NewString(col)), sqlValueToLumen(v, values[i]))
			}
			results.Add(object.Obj(row))
		}
		if err := rows.Err(); err != nil {
			v.RuntimeError(f, "query failed: %v", err)
			return object.Null, false
		}
		return object.Obj(results), true
	})

	bindPrimitive(v, cls.db, false, "close()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		inst, ok := args[0].AsObject().(*object.Instance)
		if !ok || len(inst.Fields) == 0 {
			v.RuntimeError(f, "receiver is not a Db")
			return object.Null, false
		}
		id := int64(inst.Fields[0].AsNumber())
		dbMu.Lock()
		conn, ok := dbConns[id]
		delete(dbConns, id)
		dbMu.Unlock()
		if ok {
			conn.db.Close()
		}
		return object.Null, true
	})
}

func sqlValueToLumen(v *vm.VM, val interface{}) object.Value {
	switch t := val.(type) {
	case nil:
		return object.Null
	case []byte:
		return object.Obj(v.NewString(string(t)))
	case string:
		return object.Obj(v.NewString(t))
	case int64:
		return object.Number(float64(t))
	case float64:
		return object.Number(t)
	case bool:
		return object.Bool(t)
	case time.Time:
		return object.Obj(v.NewString(t.Format(time.RFC3339)))
	default:
		return object.Obj(v.NewString(fmt.Sprintf("%v", t)))
	}
}
