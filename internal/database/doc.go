// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, driver selection, migrations
//	├── books/           # Books and chapters, including the delete cascade
//	├── categories/      # Categories and book_categories associations
//	├── tags/            # Tags and book_tags associations
//	├── progress/        # Per-user listening state (user_books)
//	├── reviews/         # One review per user and book
//	├── users/           # Accounts
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type over a *gorm.DB. Services
// open a transaction and build repositories on the transaction handle so
// that a multi-table change commits or rolls back as a unit:
//
//	db, err := database.NewDatabase(database.Options{Path: "./audioshelf.db"})
//
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//	    if err := progress.NewRepository(tx).DeleteForBook(bookID); err != nil {
//	        return err
//	    }
//	    return books.NewRepository(tx).DeleteBookRow(bookID)
//	})
//
// # SQLite
//
// The SQLite DSN carries _txlock=immediate so every write transaction takes
// the database write lock when it begins. Concurrent writers queue on
// _busy_timeout instead of failing on lock upgrade.
package database
