package sqlinline

const QInsertCampaign = `--sql 5179ccff-4c5e-433f-b42b-1d521e082e69
insert into campaigns (name, campaign_message, call_to_action, target_region, target_audience, brand_images, start_date, duration_days)
values ($1::text, $2::text, $3::text, $4::text, $5::text, coalesce($6::text, '[]'), $7::date, $8::integer)
returning id, created_at, updated_at;
`

const QSelectCampaignByID = `--sql cfc4967c-d71b-4491-98c7-8c365bbdc6df
select id, name, campaign_message, coalesce(call_to_action, ''), target_region, target_audience,
       brand_images, start_date, duration_days, created_at, updated_at
from campaigns
where id = $1::uuid;
`

const QSelectCampaignNameByID = `--sql fcc5f271-75c7-43ea-ad05-a8e7b7ab9cca
select name
from campaigns
where id = $1::uuid;
`

const QListCampaigns = `--sql cf5b1358-a56f-464a-9307-e8593b42dff4
select id, name, campaign_message, coalesce(call_to_action, ''), target_region, target_audience,
       brand_images, start_date, duration_days, created_at, updated_at
from campaigns
order by created_at desc;
`

const QUpdateCampaign = `--sql 6d340103-4e02-4abb-8f1d-f2743d993765
update campaigns
set name = $2::text,
    campaign_message = $3::text,
    call_to_action = $4::text,
    target_region = $5::text,
    target_audience = $6::text,
    brand_images = coalesce($7::text, '[]'),
    start_date = $8::date,
    duration_days = $9::integer,
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QDeleteCampaign = `--sql eb096f72-db7a-47cd-a829-08e2190dc5ef
delete from campaigns
where id = $1::uuid
returning id;
`
