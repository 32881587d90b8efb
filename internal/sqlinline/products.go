package sqlinline

const QInsertProduct = `--sql 9aee435b-7892-47c5-a338-c09d0c18ddfb
insert into products (campaign_id, name, description, image_path)
values ($1::uuid, $2::text, $3::text, $4::text)
returning id, created_at, updated_at;
`

const QSelectProductByID = `--sql 400e415b-3c15-4202-8884-3532523ffaaf
select id, campaign_id, name, coalesce(description, ''), coalesce(image_path, ''), created_at, updated_at
from products
where id = $1::uuid;
`

const QListProducts = `--sql da6f4791-e2ef-45e0-b141-627f5c532b37
select id, campaign_id, name, coalesce(description, ''), coalesce(image_path, ''), created_at, updated_at
from products
order by created_at asc;
`

const QListProductsByCampaign = `--sql df250dc6-116e-445a-b748-148b5f280b1b
select id, campaign_id, name, coalesce(description, ''), coalesce(image_path, ''), created_at, updated_at
from products
where campaign_id = $1::uuid
order by created_at asc;
`

const QUpdateProduct = `--sql 67a6d907-835c-4ca7-9d95-c66f211303b2
update products
set name = $2::text,
    description = $3::text,
    image_path = $4::text,
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QUpdateProductImage = `--sql 69c01313-6a73-4052-a197-9999588c17a8
update products
set image_path = $2::text,
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QDeleteProduct = `--sql c46ef0b8-be78-4520-a1e0-9fd8c0223a24
delete from products
where id = $1::uuid
returning id;
`

const QSelectProductIDByImagePath = `--sql 89977b1c-5db7-4c8c-9f9e-47c0fa946874
select id
from products
where campaign_id = $1::uuid and image_path = $2::text
order by created_at asc
limit 1;
`
