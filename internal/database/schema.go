package database

// Schema is the persisted ledger schema. It is applied once per file inside
// a transaction; every statement is idempotent.
//
// All monetary columns are integers in minor currency units and all dates
// are integer day-granularity epoch values. Referential integrity is
// enforced with cascading foreign keys: deleting an account removes its
// transactions, deleting a transaction removes its detail row, and deleting
// a security removes its price history and detail rows that require it
// (deposit/withdraw references are merely nulled). The engine additionally
// purges master transaction rows whose detail requires a removed security
// so no orphaned masters remain.
const Schema = `
CREATE TABLE IF NOT EXISTS Accounts (
    Id   INTEGER PRIMARY KEY,
    Name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Securities (
    Id         INTEGER PRIMARY KEY,
    Symbol     TEXT NOT NULL UNIQUE,
    Name       TEXT NOT NULL,
    AssetClass TEXT NOT NULL,
    Sector     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS SecurityPrices (
    SecurityId INTEGER NOT NULL REFERENCES Securities(Id) ON DELETE CASCADE,
    Date       INTEGER NOT NULL,
    Price      INTEGER NOT NULL CHECK (Price >= 0),
    PRIMARY KEY (SecurityId, Date)
);

CREATE TABLE IF NOT EXISTS Transactions (
    Id        INTEGER PRIMARY KEY,
    AccountId INTEGER NOT NULL REFERENCES Accounts(Id) ON DELETE CASCADE,
    Date      INTEGER NOT NULL,
    Action    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON Transactions(AccountId);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON Transactions(Date);

CREATE TABLE IF NOT EXISTS BuyTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER NOT NULL REFERENCES Securities(Id) ON DELETE CASCADE,
    Shares        INTEGER NOT NULL CHECK (Shares >= 0),
    SharePrice    INTEGER NOT NULL CHECK (SharePrice >= 0),
    Commission    INTEGER NOT NULL CHECK (Commission >= 0)
);

CREATE TABLE IF NOT EXISTS SellTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER NOT NULL REFERENCES Securities(Id) ON DELETE CASCADE,
    Shares        INTEGER NOT NULL CHECK (Shares >= 0),
    SharePrice    INTEGER NOT NULL CHECK (SharePrice >= 0),
    Commission    INTEGER NOT NULL CHECK (Commission >= 0)
);

CREATE TABLE IF NOT EXISTS DepositTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER REFERENCES Securities(Id) ON DELETE SET NULL,
    Amount        INTEGER NOT NULL CHECK (Amount >= 0)
);

CREATE TABLE IF NOT EXISTS WithdrawTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER REFERENCES Securities(Id) ON DELETE SET NULL,
    Amount        INTEGER NOT NULL CHECK (Amount >= 0)
);

CREATE TABLE IF NOT EXISTS DividendTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER NOT NULL REFERENCES Securities(Id) ON DELETE CASCADE,
    Amount        INTEGER NOT NULL CHECK (Amount >= 0)
);

CREATE TABLE IF NOT EXISTS InterestTransactions (
    TransactionId INTEGER PRIMARY KEY REFERENCES Transactions(Id) ON DELETE CASCADE,
    SecurityId    INTEGER NOT NULL REFERENCES Securities(Id) ON DELETE CASCADE,
    Amount        INTEGER NOT NULL CHECK (Amount >= 0)
);
`
