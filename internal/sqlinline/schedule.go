package sqlinline

const QInsertScheduledPost = `--sql d3309361-8523-49ca-8421-bc52d5c33147
insert into scheduled_posts (post_id, platforms, post_text, media_url, schedule_type, scheduled_at, recurrence_days, recurrence_time, status)
values ($1::uuid, coalesce($2::text, '[]'), $3::text, $4::text, $5::text, $6::timestamptz, $7::text, $8::text, 'pending')
returning id, created_at, updated_at;
`

const QListScheduledPosts = `--sql fab3e0cc-63f2-4cd2-a8f2-53622b35e291
select id, post_id, platforms, post_text, coalesce(media_url, ''), schedule_type, scheduled_at,
       coalesce(recurrence_days, ''), coalesce(recurrence_time, ''), status,
       coalesce(external_ref, ''), coalesce(last_error, ''), created_at, updated_at
from scheduled_posts
where ($1::uuid is null or post_id = $1::uuid)
  and ($2::uuid is null or post_id in (select id from posts where campaign_id = $2::uuid))
order by created_at desc;
`

const QCancelScheduledPost = `--sql 57b473f5-4b45-42a0-8c6e-5a237c52ab46
update scheduled_posts
set status = 'cancelled', updated_at = now()
where id = $1::uuid and status in ('pending', 'failed')
returning id, coalesce(external_ref, '');
`

const QClaimDueScheduledPost = `--sql 43b2092c-55a1-48cf-a5b1-19b0ba819cea
with due as (
    select id
    from scheduled_posts
    where status = 'pending'
      and (schedule_type = 'immediate' or (scheduled_at is not null and scheduled_at <= now()))
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update scheduled_posts
    set status = 'processing', updated_at = now()
    where id in (select id from due)
    returning id, post_id, platforms, post_text, coalesce(media_url, ''), schedule_type,
              coalesce(recurrence_days, ''), coalesce(recurrence_time, '')
)
select * from claimed;
`

const QRescheduleRecurringPost = `--sql a5544eee-e107-43fe-aedd-f6199ff4699a
update scheduled_posts
set status = 'pending', scheduled_at = $2::timestamptz, external_ref = $3::text, last_error = null, updated_at = now()
where id = $1::uuid;
`

const QMarkScheduledPostSent = `--sql 0a0cd76e-7d15-4693-becd-8b62dd642416
update scheduled_posts
set status = 'sent', external_ref = $2::text, last_error = null, updated_at = now()
where id = $1::uuid;
`

const QMarkScheduledPostFailed = `--sql 4bc84db7-09e5-41b5-b682-9e3eca8e9710
update scheduled_posts
set status = 'failed', last_error = $2::text, updated_at = now()
where id = $1::uuid;
`
