package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestListTables_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME FROM information_schema.TABLES").
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).
			AddRow("customers").AddRow("orders").AddRow("users"))

	in := NewIntrospector(db, "mysql", "shop")
	tables, err := in.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 3 || tables[1].TableName != "orders" {
		t.Errorf("tables = %+v", tables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListTables_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders"))

	in := NewIntrospector(db, "pgsql", "shop")
	tables, err := in.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 || tables[0].TableName != "orders" {
		t.Errorf("tables = %+v", tables)
	}
}

func TestListTables_SQLite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("orders"))

	in := NewIntrospector(db, "sqlite", "")
	tables, err := in.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 {
		t.Errorf("tables = %+v", tables)
	}
}

func TestTableExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("Orders").AddRow("users")
	mock.ExpectQuery("SELECT TABLE_NAME").WithArgs("shop").WillReturnRows(rows)

	in := NewIntrospector(db, "mysql", "shop")
	rec, err := in.TableExists(context.Background(), "orders")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if rec == nil || rec.TableName != "Orders" {
		t.Errorf("lookup should be case-insensitive, got %+v", rec)
	}

	rows = sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("users")
	mock.ExpectQuery("SELECT TABLE_NAME").WithArgs("shop").WillReturnRows(rows)
	rec, err = in.TableExists(context.Background(), "usres")
	if err != nil {
		t.Fatalf("TableExists: %v", err)
	}
	if rec != nil {
		t.Errorf("misspelled table should not resolve, got %+v", rec)
	}
}

func TestListColumns_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME, COLUMN_NAME FROM information_schema.COLUMNS").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
			AddRow("orders", "id").AddRow("orders", "customer_id"))

	in := NewIntrospector(db, "mysql", "shop")
	cols, err := in.ListColumns(context.Background(), "", "orders")
	if err != nil {
		t.Fatalf("ListColumns: %v", err)
	}
	if len(cols) != 2 || cols[1].ColumnName != "customer_id" {
		t.Errorf("columns = %+v", cols)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestColumnExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME, COLUMN_NAME").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "COLUMN_NAME"}).
			AddRow("orders", "Total").AddRow("orders", "status"))

	in := NewIntrospector(db, "mysql", "shop")
	rec, err := in.ColumnExists(context.Background(), "", "orders", "total")
	if err != nil {
		t.Fatalf("ColumnExists: %v", err)
	}
	if rec == nil || rec.ColumnName != "Total" {
		t.Errorf("column lookup should be case-insensitive, got %+v", rec)
	}
}

func TestListTables_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT TABLE_NAME").WithArgs("shop").
		WillReturnError(context.DeadlineExceeded)

	in := NewIntrospector(db, "mysql", "shop")
	if _, err := in.ListTables(context.Background()); err == nil {
		t.Error("query error should propagate")
	}
}
