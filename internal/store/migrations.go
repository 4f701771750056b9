package store

const schema = `
CREATE TABLE IF NOT EXISTS properties (
    id           TEXT PRIMARY KEY,
    landlord_id  TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL,
    price        REAL NOT NULL,
    currency     TEXT NOT NULL DEFAULT '€',
    rooms        INTEGER NOT NULL DEFAULT 0,
    location     TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    amenities    TEXT NOT NULL DEFAULT '[]',
    images       TEXT NOT NULL DEFAULT '[]',
    rental_type  TEXT NOT NULL DEFAULT 'furnished',
    source       TEXT NOT NULL DEFAULT 'api',
    external_id  TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id);
CREATE INDEX IF NOT EXISTS idx_properties_location ON properties(location);
CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);

CREATE TABLE IF NOT EXISTS profiles (
    id                 TEXT PRIMARY KEY,
    role               TEXT NOT NULL DEFAULT 'tenant',
    first_name         TEXT NOT NULL DEFAULT '',
    last_name          TEXT NOT NULL DEFAULT '',
    email              TEXT NOT NULL DEFAULT '',
    income             REAL NOT NULL DEFAULT 0,
    budget_min         REAL NOT NULL DEFAULT 0,
    budget_max         REAL NOT NULL DEFAULT 0,
    preferred_location TEXT NOT NULL DEFAULT '',
    age                INTEGER NOT NULL DEFAULT 0,
    bio                TEXT NOT NULL DEFAULT '',
    profession         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS applications (
    id           TEXT PRIMARY KEY,
    property_id  TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
    tenant_id    TEXT NOT NULL REFERENCES profiles(id),
    status       TEXT NOT NULL DEFAULT 'pending',
    message      TEXT NOT NULL DEFAULT '',
    alerted      BOOLEAN NOT NULL DEFAULT 0,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL,
    UNIQUE(property_id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_tenant ON applications(tenant_id);
`
