// Package postgres implements the PostgreSQL persistence layer for Attendance Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE COURSES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create courses table
-- Version: 001

CREATE TABLE IF NOT EXISTS courses (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id VARCHAR(128) NOT NULL,
    name VARCHAR(200) NOT NULL,
    professor_name VARCHAR(200) NOT NULL DEFAULT '',
    total_sessions INTEGER NOT NULL,
    -- Schedule: weekday indexes (0 = Sunday) and a "HH:MM" start time.
    -- NULL means the course has no timetable and is excluded from reminders.
    schedule_days SMALLINT[],
    schedule_time CHAR(5),
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_total_sessions CHECK (total_sessions >= 1),
    CONSTRAINT schedule_complete CHECK (
        (schedule_days IS NULL AND schedule_time IS NULL) OR
        (schedule_days IS NOT NULL AND schedule_time IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_courses_user_id ON courses(user_id);
CREATE INDEX IF NOT EXISTS idx_courses_user_name ON courses(user_id, name);
`

const migration001Down = `
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ATTENDANCE LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create attendance log table
-- Version: 002

CREATE TABLE IF NOT EXISTS attendance_log (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    course_id UUID NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    user_id VARCHAR(128) NOT NULL,
    status VARCHAR(10) NOT NULL,
    -- The store assigns the timestamp; clients never supply it.
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('present', 'absent'))
);

CREATE INDEX IF NOT EXISTS idx_attendance_log_course ON attendance_log(course_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_attendance_log_user ON attendance_log(user_id);
`

const migration002Down = `
DROP TABLE IF EXISTS attendance_log;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create profiles table
-- Version: 003

CREATE TABLE IF NOT EXISTS profiles (
    user_id VARCHAR(128) PRIMARY KEY,
    name VARCHAR(200) NOT NULL DEFAULT '',
    expected_grade VARCHAR(3) NOT NULL DEFAULT 'A+',
    timetable_image TEXT NOT NULL DEFAULT '',
    -- Web Push subscription, absent until the browser registers one.
    push_endpoint TEXT,
    push_p256dh TEXT,
    push_auth TEXT,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT subscription_complete CHECK (
        (push_endpoint IS NULL AND push_p256dh IS NULL AND push_auth IS NULL) OR
        (push_endpoint IS NOT NULL AND push_p256dh IS NOT NULL AND push_auth IS NOT NULL)
    )
);

CREATE INDEX IF NOT EXISTS idx_profiles_with_push ON profiles(user_id) WHERE push_endpoint IS NOT NULL;
`

const migration003Down = `
DROP TABLE IF EXISTS profiles;
`
