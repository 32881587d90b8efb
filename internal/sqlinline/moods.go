package sqlinline

const QInsertMoodMedia = `--sql f611973e-e6a3-4011-9dcc-0d52587e95ef
insert into mood_media (campaign_id, file_path, media_type, is_generated, prompt, source_images, aspect_ratio, generation_metadata)
values ($1::uuid, $2::text, $3::text, $4::boolean, $5::text, coalesce($6::text, '[]'), $7::text, $8::text)
returning id, created_at;
`

const QListMoodMediaByCampaign = `--sql 79583c3a-c6fb-4989-99cc-f3df6b0ac464
select id, campaign_id, file_path, media_type, is_generated, coalesce(prompt, ''), source_images,
       coalesce(aspect_ratio, ''), coalesce(generation_metadata, ''), created_at
from mood_media
where campaign_id = $1::uuid
order by created_at desc;
`

const QDeleteMoodMedia = `--sql c287f7ee-9c91-43f8-b1ab-f8b493a2fab6
delete from mood_media
where id = $1::uuid
returning file_path;
`

const QSelectMoodIDByFilePath = `--sql 68accfe3-387e-485c-81aa-e4ff6fd13142
select id
from mood_media
where campaign_id = $1::uuid and file_path = $2::text
order by created_at asc
limit 1;
`
