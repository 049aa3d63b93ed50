package config

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func InitDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) DEFAULT '',
			avatar TEXT,
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS families (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) NOT NULL,
			mantra TEXT DEFAULT '',
			family_values TEXT[] DEFAULT '{}',
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS family_members (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(50) DEFAULT 'member',
			relationship VARCHAR(100) DEFAULT '',
			joined_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(family_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS invitations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			relationship VARCHAR(100) DEFAULT 'member',
			invited_by UUID REFERENCES users(id),
			token VARCHAR(128) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(family_id, email)
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			refresh_token VARCHAR(500) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			due_date TIMESTAMP,
			assigned_to UUID REFERENCES users(id),
			created_by UUID REFERENCES users(id),
			reward_type VARCHAR(50) DEFAULT '',
			reward_amount NUMERIC(12,2) DEFAULT 0,
			category VARCHAR(100) DEFAULT '',
			recurrence VARCHAR(50) DEFAULT '',
			status VARCHAR(50) DEFAULT 'pending',
			approval_status VARCHAR(50) DEFAULT 'not_required',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS gigs (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			reward_type VARCHAR(50) DEFAULT 'points',
			reward_amount NUMERIC(12,2) DEFAULT 0,
			status VARCHAR(50) DEFAULT 'open',
			created_by UUID REFERENCES users(id),
			claimed_by UUID REFERENCES users(id),
			claimed_at TIMESTAMP,
			completed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS calendar_events (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			location VARCHAR(255) DEFAULT '',
			starts_at TIMESTAMP NOT NULL,
			ends_at TIMESTAMP,
			all_day BOOLEAN DEFAULT FALSE,
			recurrence VARCHAR(50) DEFAULT '',
			attendees UUID[] DEFAULT '{}',
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			sender_id UUID REFERENCES users(id),
			content TEXT NOT NULL,
			source VARCHAR(50) DEFAULT 'app',
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(100) NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT DEFAULT '',
			read BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) DEFAULT '',
			monthly_limit NUMERIC(12,2) DEFAULT 0,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			budget_id UUID REFERENCES budgets(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL,
			category VARCHAR(100) DEFAULT '',
			note TEXT DEFAULT '',
			occurred_at TIMESTAMP DEFAULT NOW(),
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS savings_goals (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			target_amount NUMERIC(12,2) NOT NULL,
			current_amount NUMERIC(12,2) DEFAULT 0,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shopping_lists (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shopping_items (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			list_id UUID REFERENCES shopping_lists(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			quantity NUMERIC(12,2) DEFAULT 1,
			unit VARCHAR(50) DEFAULT '',
			completed BOOLEAN DEFAULT FALSE,
			added_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS recipes (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			instructions TEXT DEFAULT '',
			servings INTEGER DEFAULT 0,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS recipe_ingredients (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			recipe_id UUID REFERENCES recipes(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			quantity NUMERIC(12,2) DEFAULT 0,
			unit VARCHAR(50) DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS meal_plan_entries (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			recipe_id UUID REFERENCES recipes(id) ON DELETE CASCADE,
			plan_date DATE NOT NULL,
			meal_type VARCHAR(50) DEFAULT 'dinner',
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS wishlists (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(family_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS wishlist_items (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			wishlist_id UUID REFERENCES wishlists(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			url TEXT DEFAULT '',
			price NUMERIC(12,2) DEFAULT 0,
			priority INTEGER DEFAULT 0,
			reserved_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS fc_accounts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			authorized BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(user_id, family_id)
		)`,

		`CREATE TABLE IF NOT EXISTS fc_authorization_tokens (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			token VARCHAR(128) UNIQUE NOT NULL,
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			target_user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			scopes TEXT[] DEFAULT '{}',
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP,
			revoked_by UUID REFERENCES users(id),
			revoke_reason TEXT,
			last_validated_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS fc_screen_time_records (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			record_date DATE NOT NULL,
			total_minutes INTEGER DEFAULT 0,
			app_breakdown JSONB DEFAULT '{}',
			category_breakdown JSONB DEFAULT '{}',
			created_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(user_id, family_id, record_date)
		)`,

		`CREATE TABLE IF NOT EXISTS fc_device_policies (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			device_id VARCHAR(255) NOT NULL,
			blocked_apps TEXT[] DEFAULT '{}',
			content_restrictions JSONB DEFAULT '{}',
			updated_by UUID REFERENCES users(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(family_id, device_id)
		)`,

		`CREATE TABLE IF NOT EXISTS assistant_memories (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			family_id UUID REFERENCES families(id) ON DELETE CASCADE,
			kind VARCHAR(50) DEFAULT 'short_term',
			content TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_family_members_family_id ON family_members(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_family_members_user_id ON family_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_token ON invitations(token)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_email ON invitations(email)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_family_id ON tasks(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to)`,
		`CREATE INDEX IF NOT EXISTS idx_gigs_family_id ON gigs(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calendar_events_family_id ON calendar_events(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_family_id ON messages(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_family_id ON budgets(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_budget_id ON transactions(budget_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shopping_items_list_id ON shopping_items(list_id)`,
		`CREATE INDEX IF NOT EXISTS idx_meal_plan_entries_family_date ON meal_plan_entries(family_id, plan_date)`,
		`CREATE INDEX IF NOT EXISTS idx_fc_tokens_token ON fc_authorization_tokens(token)`,
		`CREATE INDEX IF NOT EXISTS idx_fc_tokens_family_id ON fc_authorization_tokens(family_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fc_screen_time_user_date ON fc_screen_time_records(user_id, record_date)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
