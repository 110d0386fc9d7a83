package storage

const schema = `
-- The 'questions' table is the exam question catalog.
CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT NOT NULL UNIQUE,
    exam_type TEXT NOT NULL,
    domain TEXT NOT NULL,
    difficulty INTEGER NOT NULL,
    question_text TEXT NOT NULL,
    options TEXT NOT NULL,
    correct_answer TEXT NOT NULL,
    explanation TEXT,
    reference TEXT,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- The 'question_stats' table is the per-(question, user) review ledger.
CREATE TABLE IF NOT EXISTS question_stats (
    question_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL DEFAULT 1,
    times_seen INTEGER NOT NULL DEFAULT 0,
    times_correct INTEGER NOT NULL DEFAULT 0,
    last_seen DATETIME,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 1,
    next_review DATETIME NOT NULL,

    PRIMARY KEY(question_id, user_id),
    FOREIGN KEY(question_id) REFERENCES questions(id)
);

-- The 'exam_sessions' table records completed practice exam runs.
CREATE TABLE IF NOT EXISTS exam_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exam_type TEXT NOT NULL,
    user_id INTEGER NOT NULL DEFAULT 1,
    date DATETIME NOT NULL,
    score INTEGER NOT NULL,
    total INTEGER NOT NULL,
    time_spent INTEGER NOT NULL,
    weak_domains TEXT
);

-- The 'sources' table tracks where question banks come from,
-- either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
