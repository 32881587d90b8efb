package sqlinline

// Schema DDL executed at api startup. Statements are idempotent and run one at
// a time because the pool uses the extended protocol.

const QCreateCampaignsTable = `--sql 15dede1b-9f9e-49f6-a190-307db5905c9f
create table if not exists campaigns (
    id uuid primary key default gen_random_uuid(),
    name text not null,
    campaign_message text not null,
    call_to_action text,
    target_region text not null default '',
    target_audience text not null default '',
    brand_images text not null default '[]',
    start_date date,
    duration_days integer,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateProductsTable = `--sql c5cbd452-4fb3-42fa-8861-33a9f66f6336
create table if not exists products (
    id uuid primary key default gen_random_uuid(),
    campaign_id uuid not null references campaigns(id) on delete cascade,
    name text not null,
    description text,
    image_path text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateMoodMediaTable = `--sql ef02866c-0d70-4c60-a79e-95503656a837
create table if not exists mood_media (
    id uuid primary key default gen_random_uuid(),
    campaign_id uuid not null references campaigns(id) on delete cascade,
    file_path text not null,
    media_type text not null default 'image',
    is_generated boolean not null default false,
    prompt text,
    source_images text not null default '[]',
    aspect_ratio text,
    generation_metadata text,
    created_at timestamptz not null default now()
);
`

const QCreatePostsTable = `--sql 83adede0-d06b-41b0-9a8f-6f3e58d80a74
create table if not exists posts (
    id uuid primary key default gen_random_uuid(),
    campaign_id uuid not null references campaigns(id) on delete cascade,
    product_id uuid references products(id) on delete set null,
    mood_id uuid references mood_media(id) on delete set null,
    source_images text not null default '[]',
    headline text not null,
    body_text text not null,
    caption text not null,
    text_color text not null default '#FFFFFF',
    image_1_1 text,
    image_16_9 text,
    image_9_16 text,
    generation_prompt text not null default '',
    image_folder text not null default '',
    created_at timestamptz not null default now()
);
`

const QCreateScheduledPostsTable = `--sql 74dd2b87-58d2-4231-954d-0cf00b9d37e5
create table if not exists scheduled_posts (
    id uuid primary key default gen_random_uuid(),
    post_id uuid not null references posts(id) on delete cascade,
    platforms text not null default '[]',
    post_text text not null,
    media_url text,
    schedule_type text not null default 'immediate',
    scheduled_at timestamptz,
    recurrence_days text,
    recurrence_time text,
    status text not null default 'pending',
    external_ref text,
    last_error text,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateProviderCredentialsTable = `--sql 59bc7052-94e8-4c30-b98d-3cab2cb6bcaf
create table if not exists provider_credentials (
    id uuid primary key default gen_random_uuid(),
    provider text not null unique,
    secret text not null,
    metadata jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QHealthProbe = `--sql 780054a7-9de5-469b-9b32-9791ce6063b6
select 1;
`

const QSeedDemoCampaign = `--sql 85643b62-3376-4b8b-93da-1fcd20884e31
insert into campaigns (name, campaign_message, call_to_action, target_region, target_audience)
select 'Eco-Friendly Product Launch 2025',
       'Introducing our new line of sustainable products made from 100% recycled materials',
       'Shop Now and Save the Planet!',
       'North America',
       'Environmentally conscious millennials aged 25-40'
where not exists (select 1 from campaigns);
`

// SchemaStatements lists the DDL in dependency order.
var SchemaStatements = []string{
	QCreateCampaignsTable,
	QCreateProductsTable,
	QCreateMoodMediaTable,
	QCreatePostsTable,
	QCreateScheduledPostsTable,
	QCreateProviderCredentialsTable,
}
