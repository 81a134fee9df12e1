package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		mobile VARCHAR(50) NOT NULL DEFAULT '',
		organization VARCHAR(255) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		event_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		leader_user_id UUID NOT NULL REFERENCES users(id),
		capacity_min INTEGER NOT NULL DEFAULT 1,
		capacity_max INTEGER NOT NULL,
		current_size INTEGER NOT NULL DEFAULT 0,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (capacity_min >= 1 AND capacity_min <= capacity_max),
		CHECK (current_size >= 0 AND current_size <= capacity_max)
	)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		email VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		mobile VARCHAR(50) NOT NULL DEFAULT '',
		organization VARCHAR(255) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		is_leader BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted')),
		joined_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS registrations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		event_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		team_id UUID REFERENCES teams(id) ON DELETE SET NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		mobile VARCHAR(50) NOT NULL DEFAULT '',
		organization VARCHAR(255) NOT NULL DEFAULT '',
		location VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(event_id, user_id)
	)`,

	// Invitations outlive the sender team, so team ids carry no foreign key.
	`CREATE TABLE IF NOT EXISTS merge_invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		event_id UUID NOT NULL,
		sender_team_id UUID NOT NULL,
		receiver_team_id UUID NOT NULL,
		sender_user_id UUID NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected', 'cancelled')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		responded_at TIMESTAMP WITH TIME ZONE,
		CHECK (sender_team_id <> receiver_team_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_teams_event_id ON teams(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_email ON team_members(team_id, lower(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_members_one_leader ON team_members(team_id) WHERE is_leader`,
	`CREATE INDEX IF NOT EXISTS idx_registrations_team_id ON registrations(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_merge_invitations_sender ON merge_invitations(sender_team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_merge_invitations_receiver ON merge_invitations(receiver_team_id)`,

	// At most one pending invitation per ordered team pair and event.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_merge_invitations_one_pending
		ON merge_invitations(event_id, sender_team_id, receiver_team_id)
		WHERE status = 'pending'`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
