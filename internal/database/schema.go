package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables in dependency order.  Presenter and number
// references restrict deletes; registrations go away with their number or
// user.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                  BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email               VARCHAR(255) NOT NULL,
		password_hash       VARCHAR(255) NOT NULL,
		role                VARCHAR(32)  NOT NULL DEFAULT '',
		first_name          VARCHAR(100) NOT NULL,
		last_name           VARCHAR(100) NOT NULL,
		phone               VARCHAR(32)  NOT NULL DEFAULT '',
		profile_picture_url VARCHAR(512) NULL,
		failed_attempts     INT          NOT NULL DEFAULT 0,
		locked_until        DATETIME     NULL,
		created_at          DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		persistent BOOLEAN         NOT NULL DEFAULT FALSE,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS roles (
		code        VARCHAR(32)  NOT NULL PRIMARY KEY,
		label       VARCHAR(100) NOT NULL,
		price_cents BIGINT       NOT NULL DEFAULT 0,
		CONSTRAINT chk_roles_price CHECK (price_cents >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS presenters (
		code      VARCHAR(32)  NOT NULL PRIMARY KEY,
		name      VARCHAR(150) NOT NULL,
		role_code VARCHAR(32)  NOT NULL,
		CONSTRAINT fk_presenters_role FOREIGN KEY (role_code) REFERENCES roles (code) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS numbers (
		code             VARCHAR(32)  NOT NULL PRIMARY KEY,
		title            VARCHAR(200) NOT NULL,
		duration_minutes INT          NOT NULL,
		presenter_code   VARCHAR(32)  NOT NULL,
		show_date_time   DATETIME     NOT NULL,
		KEY idx_numbers_show (show_date_time),
		CONSTRAINT chk_numbers_duration CHECK (duration_minutes BETWEEN 1 AND 120),
		CONSTRAINT fk_numbers_presenter FOREIGN KEY (presenter_code) REFERENCES presenters (code) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS registrations (
		id            CHAR(36)        NOT NULL PRIMARY KEY,
		user_id       BIGINT UNSIGNED NOT NULL,
		number_code   VARCHAR(32)     NOT NULL,
		registered_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_registrations_user_number (user_id, number_code),
		KEY idx_registrations_recent (registered_at),
		CONSTRAINT fk_registrations_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_registrations_number FOREIGN KEY (number_code) REFERENCES numbers (code) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
