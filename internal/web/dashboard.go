package web

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Hustle Tracker</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        :root {
            --page: #f4f6f8;
            --card: #ffffff;
            --ink: #263238;
            --ink-strong: #11181c;
            --ink-soft: #78909c;
            --rule: #e3e8eb;
            --accent: #00897b;
            --afk: #f9a825;
            --lift: 0 1px 3px rgba(0, 0, 0, 0.12);
        }

        [data-theme="dark"] {
            --page: #121417;
            --card: #1e2226;
            --ink: #d5dbe0;
            --ink-strong: #f5f7f8;
            --ink-soft: #8c99a3;
            --rule: #30363b;
            --accent: #4db6ac;
            --afk: #ffca28;
            --lift: 0 1px 3px rgba(0, 0, 0, 0.4);
        }

        html { box-sizing: border-box; }
        *, *::before, *::after { box-sizing: inherit; margin: 0; padding: 0; }

        body {
            font: 15px/1.4 system-ui, -apple-system, "Segoe UI", Ubuntu, sans-serif;
            background: var(--page);
            color: var(--ink);
            max-width: 1400px;
            margin: 0 auto;
            padding: 24px;
        }

        header {
            display: flex;
            align-items: baseline;
            gap: 16px;
            margin-bottom: 24px;
        }

        header h1 { color: var(--ink-strong); font-size: 1.75rem; flex: 1; }

        #theme {
            background: none;
            color: var(--ink-soft);
            border: 1px solid var(--rule);
            border-radius: 4px;
            padding: 4px 12px;
            cursor: pointer;
        }

        #theme:hover { color: var(--accent); border-color: var(--accent); }

        .card {
            background: var(--card);
            border-radius: 6px;
            box-shadow: var(--lift);
            padding: 20px;
        }

        .card h2 {
            font-size: 1.1rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--ink-soft);
            margin-bottom: 12px;
        }

        .now { margin-bottom: 20px; }

        .dashboard {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(320px, 1fr));
            gap: 20px;
        }

        .app-item {
            display: grid;
            grid-template-columns: 1fr auto auto;
            gap: 12px;
            padding: 8px 6px;
            border-top: 1px solid var(--rule);
            background: linear-gradient(to right, color-mix(in srgb, var(--accent) 14%, transparent) var(--bar-width, 0%), transparent 0);
        }

        .app-item > div { display: contents; }

        .app-name { font-weight: 600; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
        .app-time { color: var(--ink-soft); font-variant-numeric: tabular-nums; }
        .app-percentage { color: var(--accent); min-width: 4.5em; text-align: right; font-variant-numeric: tabular-nums; }

        .listing { max-height: 60vh; overflow-y: auto; }

        .loading { color: var(--ink-soft); font-style: italic; }

        .total {
            margin-top: 12px;
            color: var(--ink-strong);
            font-weight: 600;
        }
    </style>
</head>
<body>
    <header>
        <h1>Hustle Tracker</h1>
        <button id="theme" onclick="toggleTheme()" title="Toggle theme">Theme</button>
    </header>
    <section class="card now">
        <h2>Now</h2>
        <div hx-get="/api/current" hx-trigger="load, every 5s" hx-swap="innerHTML">
            <div class="loading">Loading...</div>
        </div>
    </section>
    <main class="dashboard">
        <section class="card">
            <h2>Today</h2>
            <div hx-get="/api/summary?period=day" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </section>
        <section class="card">
            <h2>Last 7 Days</h2>
            <div hx-get="/api/summary?period=week" hx-trigger="load, every 60s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </section>
        <section class="card">
            <h2>Last 30 Days</h2>
            <div hx-get="/api/summary?period=month" hx-trigger="load, every 60s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </section>
    </main>
    <script>
        const root = document.documentElement;
        const dark = window.matchMedia('(prefers-color-scheme: dark)');

        function applyTheme(name) {
            root.dataset.theme = name;
            localStorage.setItem('hustle-theme', name);
        }

        function toggleTheme() {
            applyTheme(root.dataset.theme === 'dark' ? 'light' : 'dark');
        }

        applyTheme(localStorage.getItem('hustle-theme') || (dark.matches ? 'dark' : 'light'));
    </script>
</body>
</html>`
