// Package gate はAPIリクエストの認可ゲートを提供する。
//
// ゲートはAPIキー・認証・支払い（エンタイトルメント）の3種類のチェックを、
// ルートごとに宣言された順序で同期的に実行する。各チェックはリクエストヘッダーと
// 先行チェックの結果（State）だけを入力とし、通過なら更新後のStateを、失敗なら
// Denialを返す。最初の失敗で以降のチェックとコントローラの実行は打ち切られる。
//
// ゲート自身は可変の共有状態を持たない。設定済みAPIキー集合、クレデンシャル
// 検証器、エンタイトルメントストアへの参照だけを保持する。
package gate
