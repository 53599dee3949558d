package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create users table
			CREATE TABLE users (
				id VARCHAR(255) PRIMARY KEY,
				credits VARCHAR(64) NOT NULL DEFAULT '0',
				resource_id VARCHAR(255)
			);

			CREATE UNIQUE INDEX idx_users_resource_id ON users(resource_id);

			-- Create workflows table
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				owner_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				published BOOLEAN NOT NULL DEFAULT false,
				flow_path JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_owner_published ON workflows(owner_id, published);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
		`,
		2: `
			-- Migration 2: per-step configuration and suspended continuations
			ALTER TABLE workflows
				ADD COLUMN resume_path JSONB,
				ADD COLUMN chat_webhook JSONB NOT NULL DEFAULT '{}',
				ADD COLUMN chat_notify JSONB NOT NULL DEFAULT '{}',
				ADD COLUMN document_create JSONB NOT NULL DEFAULT '{}';
		`,
	}
}
