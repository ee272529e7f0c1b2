package storage

const (
	tableState             = "State"
	tableQuery             = "Query"
	tableCrimeListByTime   = "CrimeListByTime"
	tableCrimeInstanceList = "CrimeInstanceList"
)

const createStateSQL = `CREATE TABLE IF NOT EXISTS State (
	Id TEXT PRIMARY KEY,
	State TEXT NOT NULL
)`

const createQuerySQL = `CREATE TABLE IF NOT EXISTS "Query" (
	Id TEXT PRIMARY KEY,
	State TEXT NOT NULL,
	City TEXT NOT NULL,
	InfoType TEXT NOT NULL,
	Amount INTEGER NOT NULL,
	CreatedAt TEXT NOT NULL
)`

const createCrimeListByTimeSQL = `CREATE TABLE IF NOT EXISTS CrimeListByTime (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	QueryId TEXT NOT NULL,
	DailyCrime TEXT NOT NULL,
	Link TEXT NOT NULL,
	RecordCount INTEGER NOT NULL DEFAULT 0
)`

const createCrimeInstanceListSQL = `CREATE TABLE IF NOT EXISTS CrimeInstanceList (
	Id INTEGER PRIMARY KEY AUTOINCREMENT,
	QueryId TEXT NOT NULL,
	PeriodId INTEGER NOT NULL,
	Category TEXT NOT NULL,
	Date TEXT NOT NULL,
	Address TEXT NOT NULL,
	Link TEXT NOT NULL,
	StateId TEXT NOT NULL
)`

const createIndexesSQL = `CREATE INDEX IF NOT EXISTS idx_crimelist_query ON CrimeListByTime (QueryId);
CREATE INDEX IF NOT EXISTS idx_crimeinstance_query ON CrimeInstanceList (QueryId, PeriodId)`

var createTableSQL = map[string]string{
	tableState:             createStateSQL,
	tableQuery:             createQuerySQL,
	tableCrimeListByTime:   createCrimeListByTimeSQL,
	tableCrimeInstanceList: createCrimeInstanceListSQL,
}

// schemaOrder is the creation order used by EnsureSchema.
var schemaOrder = []string{
	tableState,
	tableQuery,
	tableCrimeListByTime,
	tableCrimeInstanceList,
}
