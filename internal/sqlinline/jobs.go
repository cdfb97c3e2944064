package sqlinline

const QEnsureGenerationJobs = `--sql 7b65fadd-68d1-4d04-bcab-34939570861d
create table if not exists generation_jobs (
    job_id       text primary key,
    session_id   text not null,
    source_url   text not null,
    model        text not null,
    status       text not null,
    result_url   text not null default '',
    attempts     integer not null default 0,
    error        text not null default '',
    submitted_at timestamptz not null,
    updated_at   timestamptz not null
);
`

const QInsertGenerationJob = `--sql 410ab924-f6a2-4cbc-be93-e67217ccab55
insert into generation_jobs (job_id, session_id, source_url, model, status, result_url, attempts, error, submitted_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
on conflict (job_id) do nothing;
`

const QUpdateGenerationJob = `--sql f7bd1f8f-fe5b-421d-87be-ce83012fc454
update generation_jobs
set status = $2,
    result_url = $3,
    attempts = $4,
    error = $5,
    updated_at = $6
where job_id = $1;
`

const QGetGenerationJob = `--sql 2ee197bb-db3f-4fb1-af9b-6ff1cdae43d2
select job_id, session_id, source_url, model, status, result_url, attempts, error, submitted_at, updated_at
from generation_jobs
where job_id = $1;
`

const QListRecentGenerationJobs = `--sql c34c203b-741d-415b-9e8c-771e18ad44ed
select job_id, session_id, source_url, model, status, result_url, attempts, error, submitted_at, updated_at
from generation_jobs
order by submitted_at desc
limit $1;
`
