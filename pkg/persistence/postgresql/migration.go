package postgresql

// migrations returns the schema migrations keyed by version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				owner_id VARCHAR(255) NOT NULL,
				nodes JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_owner ON workflows(owner_id) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_workflows_status ON workflows(status) WHERE deleted_at IS NULL;

			CREATE TABLE IF NOT EXISTS executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				user_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				triggered_by VARCHAR(50) NOT NULL,
				error TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow ON executions(workflow_id, started_at DESC);

			CREATE TABLE IF NOT EXISTS execution_steps (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions(id),
				node_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				output JSONB,
				error TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_execution_steps_execution ON execution_steps(execution_id, started_at);

			CREATE TABLE IF NOT EXISTS execution_logs (
				id UUID PRIMARY KEY,
				execution_id UUID NOT NULL REFERENCES executions(id),
				node_id VARCHAR(255),
				level VARCHAR(20) NOT NULL DEFAULT 'info',
				message TEXT NOT NULL,
				data JSONB,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_execution_logs_execution ON execution_logs(execution_id, timestamp);

			CREATE TABLE IF NOT EXISTS credentials (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(50) NOT NULL,
				owner_id VARCHAR(255) NOT NULL,
				encrypted_data TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_credentials_owner ON credentials(owner_id);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS execution_jobs (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				user_id VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				webhook_data JSONB,
				scheduled_at TIMESTAMP WITH TIME ZONE,
				error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_execution_jobs_pending
				ON execution_jobs(created_at)
				WHERE status = 'pending';
		`,
	}
}
