package web

import "html/template"

var page = template.Must(template.New("index").Parse(`
<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>pdfbinder</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    :root { --bg:#fff; --fg:#111; --muted:#666; --border:#eee; }
    * { box-sizing: border-box; }
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; color: var(--fg); background: var(--bg); }
    h1 { margin-top: 0; font-size: 22px; }
    .wrap { display: grid; grid-template-columns: 1fr 360px; gap: 24px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { padding: 8px 10px; border-bottom: 1px solid var(--border); vertical-align: middle; text-align: left; }
    tr:hover { background: #fafafa; }
    .side { position: sticky; top: 20px; height: fit-content; }
    .btn { padding: 10px 14px; border: 0; background: #111; color: #fff; border-radius: 8px; cursor: pointer; }
    .btn:disabled { opacity: .5; cursor: not-allowed; }
    .btn.ghost { background: #fff; color: #111; border: 1px solid #ddd; }
    .row { display:flex; gap:8px; align-items:center; }
    input[type="text"] { padding: 10px; border: 1px solid #ddd; border-radius: 8px; flex: 1; }
    .muted { color: var(--muted); font-size: 12px; }
    .small { font-size: 12px; }
    .badge { background:#f2f2f2; border:1px solid #e6e6e6; border-radius:999px; padding:2px 8px; font-size:11px; color:#444; }
    .drop { border: 2px dashed #ccc; border-radius: 12px; padding: 28px; text-align: center; color: var(--muted); margin-bottom: 14px; }
    .drop.hover { border-color: #111; color: #111; background: #fafafa; }
    .warn { color: #a60; }
    .err { color: #c00; }
    .ok { color: #070; }
    .spinner { display:inline-block; width:14px; height:14px; border:2px solid #ccc; border-top-color:#111; border-radius:50%; animation: spin .8s linear infinite; vertical-align: -2px; }
    @keyframes spin { to { transform: rotate(360deg); } }
    @media (max-width: 900px) {
      .wrap { grid-template-columns: 1fr; }
      .side { position: static; }
    }
  </style>
</head>
<body>
  <h1>pdfbinder</h1>

  <div class="wrap">
    <div>
      <div id="drop" class="drop">
        Drop PDF files here, or
        <label style="text-decoration:underline;cursor:pointer;">
          pick files<input id="filepick" type="file" accept=".pdf,application/pdf" multiple hidden>
        </label>
      </div>

      <div class="row" style="margin-bottom:14px;">
        <input id="urlinput" type="text" placeholder="https://example.com/some.pdf (or a page linking to one)">
        <button id="urlBtn" class="btn ghost">Add by URL</button>
      </div>

      <table>
        <thead>
          <tr><th>#</th><th>File</th><th style="width:110px;">Size</th><th style="width:80px;"></th></tr>
        </thead>
        <tbody id="tbody"></tbody>
      </table>
      <div class="muted small" style="margin-top:8px;">Pages are appended in list order.</div>
    </div>

    <div class="side">
      <h3>Merge <span id="countBadge" class="badge"></span></h3>
      <div class="row">
        <button id="mergeBtn" class="btn">Merge selected PDFs</button>
        <button id="clearBtn" class="btn ghost">Clear</button>
      </div>
      <div id="status" style="margin-top:12px;"></div>
      <div id="warning" class="warn small" style="margin-top:8px;"></div>
    </div>
  </div>

<script>
  const tbody = document.getElementById('tbody');
  const badge = document.getElementById('countBadge');
  const status = document.getElementById('status');
  const warning = document.getElementById('warning');
  const mergeBtn = document.getElementById('mergeBtn');
  const drop = document.getElementById('drop');

  function fmtSize(n) { return (n / 1048576).toFixed(2) + ' MB'; }

  function render(st) {
    tbody.innerHTML = '';
    st.files.forEach((f, i) => {
      const tr = document.createElement('tr');
      tr.innerHTML = '<td>' + (i + 1) + '</td>' +
        '<td><strong></strong></td>' +
        '<td class="muted">' + fmtSize(f.size) + '</td>' +
        '<td><button class="btn ghost small" data-id="' + f.id + '">Remove</button></td>';
      tr.querySelector('strong').textContent = f.name;
      tbody.appendChild(tr);
    });
    badge.textContent = st.files.length + ' files';
    warning.textContent = st.warning || '';
    mergeBtn.disabled = st.state === 'merging';

    if (st.state === 'merging') {
      status.innerHTML = '<span class="spinner"></span> Merging...';
    } else if (st.error) {
      status.innerHTML = '<span class="err">❌ ' + esc(st.error) + '</span>';
    } else if (st.download) {
      status.innerHTML = '<span class="ok">✅ Merged ' + st.pages + ' pages.</span> ' +
        '<a href="' + st.download + '">Download ' + esc(st.filename) + '</a>';
    } else {
      status.textContent = '';
    }
  }

  function esc(s) {
    const d = document.createElement('div');
    d.textContent = s || '';
    return d.innerHTML;
  }

  async function refresh() {
    const resp = await fetch('/state');
    render(await resp.json());
  }

  async function post(url, body, opts) {
    const resp = await fetch(url, Object.assign({ method: 'POST', body: body }, opts || {}));
    let data = {};
    try { data = await resp.json(); } catch (e) {}
    if (!resp.ok && data.error) {
      status.innerHTML = '<span class="err">❌ ' + esc(data.error) + '</span>';
    }
    await refresh();
    return resp.ok;
  }

  function uploadFiles(fileList) {
    if (!fileList.length) return;
    const form = new FormData();
    for (const f of fileList) form.append('files', f);
    post('/files', form);
  }

  document.getElementById('filepick').addEventListener('change', (e) => {
    uploadFiles(e.target.files);
    e.target.value = '';
  });

  drop.addEventListener('dragover', (e) => { e.preventDefault(); drop.classList.add('hover'); });
  drop.addEventListener('dragleave', () => drop.classList.remove('hover'));
  drop.addEventListener('drop', (e) => {
    e.preventDefault();
    drop.classList.remove('hover');
    uploadFiles(e.dataTransfer.files);
  });

  tbody.addEventListener('click', (e) => {
    const id = e.target.getAttribute('data-id');
    if (!id) return;
    post('/remove', JSON.stringify({ id: id }), { headers: {'Content-Type':'application/json'} });
  });

  document.getElementById('clearBtn').addEventListener('click', () => post('/clear'));

  document.getElementById('urlBtn').addEventListener('click', () => {
    const u = document.getElementById('urlinput').value.trim();
    if (!u) return;
    document.getElementById('urlinput').value = '';
    post('/files/url', JSON.stringify({ url: u }), { headers: {'Content-Type':'application/json'} });
  });

  mergeBtn.addEventListener('click', async () => {
    mergeBtn.disabled = true;
    status.innerHTML = '<span class="spinner"></span> Merging...';
    try {
      await post('/merge');
    } finally {
      mergeBtn.disabled = false;
    }
  });

  refresh();
</script>
</body>
</html>
`))
