package sqlinline

const QSelectProviderCredential = `--sql 1c6765ed-14a4-46d0-953f-9c890a24b79c
select secret
from provider_credentials
where provider = $1::text
limit 1;
`

const QUpsertProviderCredential = `--sql 0641c4f9-cfe7-4cc5-8e4e-8b5264eed4b5
insert into provider_credentials (id, provider, secret, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, now(), now())
on conflict (provider) do update set
    secret = excluded.secret,
    updated_at = now();
`
