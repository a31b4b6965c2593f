package store

// Timestamps are stored as unix seconds in both dialects so that scan and
// range-query code stays identical.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS call_records (
	id TEXT PRIMARY KEY,
	call_id TEXT UNIQUE NOT NULL,
	task_id TEXT NOT NULL,
	customer_id TEXT NOT NULL,
	phone TEXT,
	call_date INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	bill_ms INTEGER NOT NULL DEFAULT 0,
	rounds INTEGER NOT NULL DEFAULT 0,
	intention_level TEXT NOT NULL DEFAULT '',
	hangup_by INTEGER NOT NULL DEFAULT 0,
	call_status TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL DEFAULT '',
	asr_labels TEXT NOT NULL DEFAULT '[]',
	satisfaction TEXT NOT NULL DEFAULT '',
	satisfaction_source TEXT NOT NULL DEFAULT '',
	emotion TEXT NOT NULL DEFAULT '',
	sentiment_score REAL,
	complaint_risk TEXT NOT NULL DEFAULT '',
	churn_risk TEXT NOT NULL DEFAULT '',
	willingness TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL DEFAULT '',
	analyzed_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calls_date ON call_records(call_date);

CREATE INDEX IF NOT EXISTS idx_calls_customer ON call_records(customer_id, task_id);

CREATE INDEX IF NOT EXISTS idx_calls_analyzed ON call_records(analyzed_at);

CREATE TABLE IF NOT EXISTS customer_period_snapshots (
	id TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	phone TEXT,
	task_id TEXT NOT NULL,
	period_type TEXT NOT NULL,
	period_key TEXT NOT NULL,
	period_start INTEGER NOT NULL,
	period_end INTEGER NOT NULL,
	total_calls INTEGER NOT NULL DEFAULT 0,
	connected_calls INTEGER NOT NULL DEFAULT 0,
	connect_rate REAL NOT NULL DEFAULT 0,
	total_duration INTEGER NOT NULL DEFAULT 0,
	avg_duration REAL NOT NULL DEFAULT 0,
	max_duration INTEGER NOT NULL DEFAULT 0,
	min_duration INTEGER NOT NULL DEFAULT 0,
	total_rounds INTEGER NOT NULL DEFAULT 0,
	avg_rounds REAL NOT NULL DEFAULT 0,
	level_a_count INTEGER NOT NULL DEFAULT 0,
	level_b_count INTEGER NOT NULL DEFAULT 0,
	level_c_count INTEGER NOT NULL DEFAULT 0,
	level_d_count INTEGER NOT NULL DEFAULT 0,
	level_e_count INTEGER NOT NULL DEFAULT 0,
	level_f_count INTEGER NOT NULL DEFAULT 0,
	robot_hangup_count INTEGER NOT NULL DEFAULT 0,
	customer_hangup_count INTEGER NOT NULL DEFAULT 0,
	positive_count INTEGER NOT NULL DEFAULT 0,
	neutral_count INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	avg_sentiment_score REAL NOT NULL DEFAULT 0.5,
	high_complaint_risk INTEGER NOT NULL DEFAULT 0,
	medium_complaint_risk INTEGER NOT NULL DEFAULT 0,
	low_complaint_risk INTEGER NOT NULL DEFAULT 0,
	high_churn_risk INTEGER NOT NULL DEFAULT 0,
	medium_churn_risk INTEGER NOT NULL DEFAULT 0,
	low_churn_risk INTEGER NOT NULL DEFAULT 0,
	satisfied_count INTEGER NOT NULL DEFAULT 0,
	neutral_satisfaction_count INTEGER NOT NULL DEFAULT 0,
	unsatisfied_count INTEGER NOT NULL DEFAULT 0,
	willingness_deep_count INTEGER NOT NULL DEFAULT 0,
	willingness_normal_count INTEGER NOT NULL DEFAULT 0,
	willingness_low_count INTEGER NOT NULL DEFAULT 0,
	risk_churn_count INTEGER NOT NULL DEFAULT 0,
	risk_complaint_count INTEGER NOT NULL DEFAULT 0,
	risk_medium_count INTEGER NOT NULL DEFAULT 0,
	risk_none_count INTEGER NOT NULL DEFAULT 0,
	final_satisfaction TEXT NOT NULL DEFAULT '',
	final_emotion TEXT NOT NULL DEFAULT '',
	final_complaint_risk TEXT NOT NULL DEFAULT '',
	final_churn_risk TEXT NOT NULL DEFAULT '',
	final_willingness TEXT NOT NULL DEFAULT '',
	final_risk_level TEXT NOT NULL DEFAULT '',
	computed_at INTEGER NOT NULL,
	UNIQUE(customer_id, task_id, period_type, period_key)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_period ON customer_period_snapshots(period_type, period_key);

CREATE INDEX IF NOT EXISTS idx_snapshots_task ON customer_period_snapshots(task_id, period_type, period_key);

CREATE TABLE IF NOT EXISTS task_period_summaries (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	task_name TEXT NOT NULL DEFAULT '',
	period_type TEXT NOT NULL,
	period_key TEXT NOT NULL,
	period_start INTEGER NOT NULL,
	period_end INTEGER NOT NULL,
	total_customers INTEGER NOT NULL DEFAULT 0,
	total_calls INTEGER NOT NULL DEFAULT 0,
	connected_calls INTEGER NOT NULL DEFAULT 0,
	connect_rate REAL NOT NULL DEFAULT 0,
	avg_duration REAL NOT NULL DEFAULT 0,
	satisfied_count INTEGER NOT NULL DEFAULT 0,
	satisfied_rate REAL NOT NULL DEFAULT 0,
	neutral_satisfaction_count INTEGER NOT NULL DEFAULT 0,
	unsatisfied_count INTEGER NOT NULL DEFAULT 0,
	positive_count INTEGER NOT NULL DEFAULT 0,
	neutral_emotion_count INTEGER NOT NULL DEFAULT 0,
	negative_count INTEGER NOT NULL DEFAULT 0,
	positive_rate REAL NOT NULL DEFAULT 0,
	avg_sentiment_score REAL NOT NULL DEFAULT 0.5,
	high_complaint_customers INTEGER NOT NULL DEFAULT 0,
	high_complaint_rate REAL NOT NULL DEFAULT 0,
	high_churn_customers INTEGER NOT NULL DEFAULT 0,
	high_churn_rate REAL NOT NULL DEFAULT 0,
	medium_risk_customers INTEGER NOT NULL DEFAULT 0,
	no_risk_customers INTEGER NOT NULL DEFAULT 0,
	high_risk_rate REAL NOT NULL DEFAULT 0,
	deep_willingness_count INTEGER NOT NULL DEFAULT 0,
	normal_willingness_count INTEGER NOT NULL DEFAULT 0,
	low_willingness_count INTEGER NOT NULL DEFAULT 0,
	deep_willingness_rate REAL NOT NULL DEFAULT 0,
	computed_at INTEGER NOT NULL,
	UNIQUE(task_id, period_type, period_key)
);

CREATE INDEX IF NOT EXISTS idx_summaries_period ON task_period_summaries(period_type, period_key);

CREATE TABLE IF NOT EXISTS period_states (
	id TEXT PRIMARY KEY,
	period_type TEXT NOT NULL,
	period_key TEXT NOT NULL,
	period_start INTEGER NOT NULL,
	period_end INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	total_customers INTEGER NOT NULL DEFAULT 0,
	total_records INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	computed_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(period_type, period_key)
);

CREATE INDEX IF NOT EXISTS idx_period_states_status ON period_states(status);
`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS call_records (
	id VARCHAR(36) PRIMARY KEY,
	call_id VARCHAR(64) NOT NULL,
	task_id VARCHAR(64) NOT NULL,
	customer_id VARCHAR(64) NOT NULL,
	phone VARCHAR(32),
	call_date BIGINT NOT NULL,
	duration_ms INT NOT NULL DEFAULT 0,
	bill_ms INT NOT NULL DEFAULT 0,
	rounds INT NOT NULL DEFAULT 0,
	intention_level VARCHAR(8) NOT NULL DEFAULT '',
	hangup_by INT NOT NULL DEFAULT 0,
	call_status VARCHAR(32) NOT NULL DEFAULT '',
	transcript MEDIUMTEXT,
	asr_labels TEXT,
	satisfaction VARCHAR(16) NOT NULL DEFAULT '',
	satisfaction_source VARCHAR(16) NOT NULL DEFAULT '',
	emotion VARCHAR(16) NOT NULL DEFAULT '',
	sentiment_score DOUBLE,
	complaint_risk VARCHAR(8) NOT NULL DEFAULT '',
	churn_risk VARCHAR(8) NOT NULL DEFAULT '',
	willingness VARCHAR(8) NOT NULL DEFAULT '',
	risk_level VARCHAR(16) NOT NULL DEFAULT '',
	analyzed_at BIGINT,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE KEY uk_call_id (call_id),
	KEY idx_calls_date (call_date),
	KEY idx_calls_customer (customer_id, task_id),
	KEY idx_calls_analyzed (analyzed_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS customer_period_snapshots (
	id VARCHAR(36) PRIMARY KEY,
	customer_id VARCHAR(64) NOT NULL,
	phone VARCHAR(32),
	task_id VARCHAR(64) NOT NULL,
	period_type VARCHAR(8) NOT NULL,
	period_key VARCHAR(16) NOT NULL,
	period_start BIGINT NOT NULL,
	period_end BIGINT NOT NULL,
	total_calls INT NOT NULL DEFAULT 0,
	connected_calls INT NOT NULL DEFAULT 0,
	connect_rate DOUBLE NOT NULL DEFAULT 0,
	total_duration INT NOT NULL DEFAULT 0,
	avg_duration DOUBLE NOT NULL DEFAULT 0,
	max_duration INT NOT NULL DEFAULT 0,
	min_duration INT NOT NULL DEFAULT 0,
	total_rounds INT NOT NULL DEFAULT 0,
	avg_rounds DOUBLE NOT NULL DEFAULT 0,
	level_a_count INT NOT NULL DEFAULT 0,
	level_b_count INT NOT NULL DEFAULT 0,
	level_c_count INT NOT NULL DEFAULT 0,
	level_d_count INT NOT NULL DEFAULT 0,
	level_e_count INT NOT NULL DEFAULT 0,
	level_f_count INT NOT NULL DEFAULT 0,
	robot_hangup_count INT NOT NULL DEFAULT 0,
	customer_hangup_count INT NOT NULL DEFAULT 0,
	positive_count INT NOT NULL DEFAULT 0,
	neutral_count INT NOT NULL DEFAULT 0,
	negative_count INT NOT NULL DEFAULT 0,
	avg_sentiment_score DOUBLE NOT NULL DEFAULT 0.5,
	high_complaint_risk INT NOT NULL DEFAULT 0,
	medium_complaint_risk INT NOT NULL DEFAULT 0,
	low_complaint_risk INT NOT NULL DEFAULT 0,
	high_churn_risk INT NOT NULL DEFAULT 0,
	medium_churn_risk INT NOT NULL DEFAULT 0,
	low_churn_risk INT NOT NULL DEFAULT 0,
	satisfied_count INT NOT NULL DEFAULT 0,
	neutral_satisfaction_count INT NOT NULL DEFAULT 0,
	unsatisfied_count INT NOT NULL DEFAULT 0,
	willingness_deep_count INT NOT NULL DEFAULT 0,
	willingness_normal_count INT NOT NULL DEFAULT 0,
	willingness_low_count INT NOT NULL DEFAULT 0,
	risk_churn_count INT NOT NULL DEFAULT 0,
	risk_complaint_count INT NOT NULL DEFAULT 0,
	risk_medium_count INT NOT NULL DEFAULT 0,
	risk_none_count INT NOT NULL DEFAULT 0,
	final_satisfaction VARCHAR(16) NOT NULL DEFAULT '',
	final_emotion VARCHAR(16) NOT NULL DEFAULT '',
	final_complaint_risk VARCHAR(8) NOT NULL DEFAULT '',
	final_churn_risk VARCHAR(8) NOT NULL DEFAULT '',
	final_willingness VARCHAR(8) NOT NULL DEFAULT '',
	final_risk_level VARCHAR(16) NOT NULL DEFAULT '',
	computed_at BIGINT NOT NULL,
	UNIQUE KEY uk_snapshot (customer_id, task_id, period_type, period_key),
	KEY idx_snapshots_period (period_type, period_key),
	KEY idx_snapshots_task (task_id, period_type, period_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS task_period_summaries (
	id VARCHAR(36) PRIMARY KEY,
	task_id VARCHAR(64) NOT NULL,
	task_name VARCHAR(128) NOT NULL DEFAULT '',
	period_type VARCHAR(8) NOT NULL,
	period_key VARCHAR(16) NOT NULL,
	period_start BIGINT NOT NULL,
	period_end BIGINT NOT NULL,
	total_customers INT NOT NULL DEFAULT 0,
	total_calls INT NOT NULL DEFAULT 0,
	connected_calls INT NOT NULL DEFAULT 0,
	connect_rate DOUBLE NOT NULL DEFAULT 0,
	avg_duration DOUBLE NOT NULL DEFAULT 0,
	satisfied_count INT NOT NULL DEFAULT 0,
	satisfied_rate DOUBLE NOT NULL DEFAULT 0,
	neutral_satisfaction_count INT NOT NULL DEFAULT 0,
	unsatisfied_count INT NOT NULL DEFAULT 0,
	positive_count INT NOT NULL DEFAULT 0,
	neutral_emotion_count INT NOT NULL DEFAULT 0,
	negative_count INT NOT NULL DEFAULT 0,
	positive_rate DOUBLE NOT NULL DEFAULT 0,
	avg_sentiment_score DOUBLE NOT NULL DEFAULT 0.5,
	high_complaint_customers INT NOT NULL DEFAULT 0,
	high_complaint_rate DOUBLE NOT NULL DEFAULT 0,
	high_churn_customers INT NOT NULL DEFAULT 0,
	high_churn_rate DOUBLE NOT NULL DEFAULT 0,
	medium_risk_customers INT NOT NULL DEFAULT 0,
	no_risk_customers INT NOT NULL DEFAULT 0,
	high_risk_rate DOUBLE NOT NULL DEFAULT 0,
	deep_willingness_count INT NOT NULL DEFAULT 0,
	normal_willingness_count INT NOT NULL DEFAULT 0,
	low_willingness_count INT NOT NULL DEFAULT 0,
	deep_willingness_rate DOUBLE NOT NULL DEFAULT 0,
	computed_at BIGINT NOT NULL,
	UNIQUE KEY uk_summary (task_id, period_type, period_key),
	KEY idx_summaries_period (period_type, period_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS period_states (
	id VARCHAR(36) PRIMARY KEY,
	period_type VARCHAR(8) NOT NULL,
	period_key VARCHAR(16) NOT NULL,
	period_start BIGINT NOT NULL,
	period_end BIGINT NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	total_customers INT NOT NULL DEFAULT 0,
	total_records INT NOT NULL DEFAULT 0,
	error_message TEXT,
	computed_at BIGINT,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	UNIQUE KEY uk_period (period_type, period_key),
	KEY idx_period_states_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
