package help

const ColdstartYAML = `# release-scraper Quick Start

commands:
  extract: |
    release-scraper extract
    release-scraper extract --url "https://www.cursor.com/downloads" --output-dir ./out

  retries_and_reload: |
    release-scraper extract --retries 3 --reload-between-sections

  debug_visible_browser: |
    release-scraper extract --headed --verbose

  offline_replay: |
    # Step 1: Save the loaded page during a live run
    release-scraper extract --save-snapshot page.html

    # Step 2: Replay extraction against the saved page
    release-scraper extract --snapshot page.html --no-db

  yaml_output: |
    release-scraper extract --format yaml --prefix cursor

  history: |
    release-scraper runs --limit 10
    release-scraper run 5
    release-scraper latest --platform linux
    release-scraper latest --filter "platform:linux|macos,version:latest"

output_files:
  - "<prefix>_all.json (every version, in page order, 4-space indent)"
  - "<prefix>_latest_linux.json (newest version, linux entries only)"
  - "failed-links.yaml (only created if links failed after retries)"
  - "manifest.json (run summary and list of files written)"

config_file:
  usage: "release-scraper extract --config scraper.yaml"
  example: |
    target_url: https://www.cursor.com/downloads
    retry_count: 2
    retry_backoff: 1s
    request_wait_timeout: 15s
    download_hosts: [downloads.cursor.com/production/]
    download_extensions: [.dmg, .exe, .AppImage]
    output_dir: ./out

failure_markers:
  - "A link that fails every attempt keeps its platform and description"
  - "Its url and filename hold '<category> (retried N times)'"
  - "Categories: text-fetch, click/request-timeout, capture-exception, outer-error"
  - "Failed links never appear in the version files"

error_behavior:
  - "Page load, readiness or section discovery failure: no files written"
  - "Runs are recorded in release-scraper.db next to the binary (--db to override, --no-db to skip)"
  - "Exit codes: 0=success, 1=partial failure or no data, 2=hard failure"
`
