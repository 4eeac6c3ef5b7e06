package store

// Schema is the target DDL applied by the migrate command. Child rows of the
// workout aggregates cascade on delete so replace-all-children updates only
// need to remove the exercise links.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    role_id INTEGER NOT NULL DEFAULT 2,
    status TEXT NOT NULL DEFAULT 'pending',
    created_by BIGINT REFERENCES users(id),
    registration_token TEXT,
    registration_token_expires_at TIMESTAMPTZ,
    deactivated_at TIMESTAMPTZ,
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_details (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
    birthday DATE,
    height DOUBLE PRECISION,
    weight DOUBLE PRECISION,
    sex TEXT,
    photography_url TEXT,
    photography_key TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    parent_category BIGINT REFERENCES categories(id),
    created_by BIGINT NOT NULL REFERENCES users(id),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exercises (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    category BIGINT NOT NULL REFERENCES categories(id),
    created_by BIGINT NOT NULL REFERENCES users(id),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exercise_variables (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    unit TEXT NOT NULL,
    description TEXT,
    created_by BIGINT NOT NULL REFERENCES users(id),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS templates (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_by BIGINT NOT NULL REFERENCES users(id),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS template_exercises (
    id BIGSERIAL PRIMARY KEY,
    template_id BIGINT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
    exercise_id BIGINT NOT NULL REFERENCES exercises(id),
    order_position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS template_exercise_set_variables (
    id BIGSERIAL PRIMARY KEY,
    template_exercise_id BIGINT NOT NULL REFERENCES template_exercises(id) ON DELETE CASCADE,
    set_number INTEGER NOT NULL,
    exercise_variable_id BIGINT NOT NULL REFERENCES exercise_variables(id),
    target_value TEXT
);

CREATE TABLE IF NOT EXISTS trainings (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    created_by BIGINT NOT NULL REFERENCES users(id),
    training_target BIGINT NOT NULL REFERENCES users(id),
    archived_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS training_exercises (
    id BIGSERIAL PRIMARY KEY,
    training_id BIGINT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
    exercise_id BIGINT NOT NULL REFERENCES exercises(id),
    order_position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS training_exercise_set_variables (
    id BIGSERIAL PRIMARY KEY,
    training_exercise_id BIGINT NOT NULL REFERENCES training_exercises(id) ON DELETE CASCADE,
    set_number INTEGER NOT NULL,
    exercise_variable_id BIGINT NOT NULL REFERENCES exercise_variables(id),
    target_value TEXT
);

CREATE TABLE IF NOT EXISTS photos (
    id BIGSERIAL PRIMARY KEY,
    model TEXT NOT NULL,
    model_id BIGINT NOT NULL,
    photography_url TEXT NOT NULL,
    photography_key TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (model, model_id)
);
`

// SchemaTables lists the tables the schema creates, in dependency order.
var SchemaTables = []string{
	"users",
	"user_details",
	"categories",
	"exercises",
	"exercise_variables",
	"templates",
	"template_exercises",
	"template_exercise_set_variables",
	"trainings",
	"training_exercises",
	"training_exercise_set_variables",
	"photos",
}
