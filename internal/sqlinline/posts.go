package sqlinline

const QInsertPost = `--sql 7c53ba37-4540-447f-99d2-eec96eb7070a
insert into posts (campaign_id, product_id, mood_id, source_images, headline, body_text, caption, text_color,
                   image_1_1, image_16_9, image_9_16, generation_prompt, image_folder)
values ($1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::text, $7::text, $8::text,
        $9::text, $10::text, $11::text, $12::text, $13::text)
returning id, created_at;
`

const QSelectPostByID = `--sql 6326e7d0-3b64-4601-851c-f75a1e3fac5a
select id, campaign_id, product_id, mood_id, source_images, headline, body_text, caption, text_color,
       image_1_1, image_16_9, image_9_16, generation_prompt, image_folder, created_at
from posts
where id = $1::uuid;
`

const QListPosts = `--sql a742726c-17c0-4cff-9312-1cdacbddf2f9
select id, campaign_id, product_id, mood_id, source_images, headline, body_text, caption, text_color,
       image_1_1, image_16_9, image_9_16, generation_prompt, image_folder, created_at
from posts
order by created_at desc;
`

const QListPostsByCampaign = `--sql b0cf62d2-db34-4dfc-8631-849c8c76bc3c
select id, campaign_id, product_id, mood_id, source_images, headline, body_text, caption, text_color,
       image_1_1, image_16_9, image_9_16, generation_prompt, image_folder, created_at
from posts
where campaign_id = $1::uuid
order by created_at desc;
`

const QUpdatePostText = `--sql e687f202-8c68-4af3-8693-9fe4605e41a6
update posts
set headline = $2::text,
    body_text = $3::text,
    caption = $4::text,
    text_color = $5::text
where id = $1::uuid
returning id;
`

const QUpdatePostImages = `--sql 8c1f8a70-4df0-49c1-aac3-7297f69708c9
update posts
set image_1_1 = $2::text,
    image_16_9 = $3::text,
    image_9_16 = $4::text,
    generation_prompt = $5::text,
    image_folder = $6::text
where id = $1::uuid
returning id;
`

const QDeletePost = `--sql bfb6dc8a-29dd-4295-8a83-889680efecb8
delete from posts
where id = $1::uuid
returning image_folder;
`

const QSelectPostFoldersByCampaign = `--sql b2868820-eeb4-4293-aaed-5493240b9091
select image_folder
from posts
where campaign_id = $1::uuid and image_folder <> '';
`
